package ports

import (
	"context"
	"time"

	"researchdigest/internal/domain"
)

// ArticleSource pulls fresh article records from upstream providers.
type ArticleSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.ArticleRecord, error)
}

// DigestSink delivers a finalized digest batch, e.g. over email.
type DigestSink interface {
	SendDigest(ctx context.Context, entries []domain.DigestEntry) error
}

// CitationSource provides citation metrics for quality filtering.
type CitationSource interface {
	ArticleCitations(ctx context.Context, doi, title string) (int, error)
	JournalHIndex(ctx context.Context, journal string) (int, error)
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
