package domain

import "time"

// ArticleRecord is the raw metadata fetched from an upstream source.
// Records are immutable once fetched; readers produce them, the core consumes them.
type ArticleRecord struct {
	Source      string
	Title       string
	URL         string
	Abstract    string
	Content     string
	DOI         string
	Journal     string
	PublishedAt time.Time
}

// Body returns the best available text for summarization and scoring.
func (r ArticleRecord) Body() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Abstract
}

// Provenance distinguishes a genuine model summary from the deterministic fallback.
type Provenance string

const (
	ProvenanceModel    Provenance = "model-generated"
	ProvenanceFallback Provenance = "fallback-generated"
)

// SummaryResult is the outcome of summarizing one article. Transient value,
// consumed immediately by the digest assembler.
type SummaryResult struct {
	Identity   string
	Summary    string
	Provenance Provenance
}

// DigestEntry is one finalized item handed to the email sink.
type DigestEntry struct {
	Title      string
	URL        string
	Source     string
	Summary    string
	Provenance Provenance
	Relevance  float64
}
