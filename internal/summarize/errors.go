package summarize

import "errors"

// Class separates retryable summarizer failures from ones that will never
// succeed no matter how often they are retried.
type Class int

const (
	// ClassTransient covers timeouts, rate limits, and 5xx-style failures.
	ClassTransient Class = iota
	// ClassPermanent covers invalid input, auth failures, and policy rejections.
	ClassPermanent
)

// ClassifiedError wraps a summarizer failure with its retry class.
type ClassifiedError struct {
	Class Class
	Err   error
}

func (e *ClassifiedError) Error() string {
	if e.Class == ClassPermanent {
		return "permanent: " + e.Err.Error()
	}
	return "transient: " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Transient marks an error as retryable.
func Transient(err error) error {
	return &ClassifiedError{Class: ClassTransient, Err: err}
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return &ClassifiedError{Class: ClassPermanent, Err: err}
}

// Classify extracts the class of an error. Unclassified errors count as
// transient: retrying an unknown failure is cheaper than wrongly giving up.
func Classify(err error) Class {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Class
	}
	return ClassTransient
}
