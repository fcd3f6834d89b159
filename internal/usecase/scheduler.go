package usecase

import (
	"context"
	"log/slog"
	"time"

	"researchdigest/internal/ports"
)

// Runner binds the interval driver to the digest pipeline.
type Runner struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewRunner returns a helper to start/stop recurring runs.
func NewRunner(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the driver. Run failures are logged and
// the schedule keeps going; a broken run must not stop future runs.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || r.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := r.pipeline.ProcessDay(ctx, trigger); err != nil {
			r.logger.Error("scheduled run failed", "error", err)
		}
	}

	return r.driver.Start(ctx, job)
}

// Stop tears down the underlying driver.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}
