package relevance

import (
	"context"
	"log/slog"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
)

// QualityFilter drops articles below configured citation thresholds. A nil or
// failing citation source degrades to keeping the article: lack of metrics is
// never a reason to abort or silently discard work.
type QualityFilter struct {
	minCitations int
	minHIndex    int
	citations    ports.CitationSource
	logger       *slog.Logger
}

// NewQualityFilter builds a filter from config thresholds.
func NewQualityFilter(cfg config.QualityConfig, citations ports.CitationSource, logger *slog.Logger) *QualityFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityFilter{
		minCitations: cfg.MinCitations,
		minHIndex:    cfg.MinHIndex,
		citations:    citations,
		logger:       logger,
	}
}

// Filter returns the records that pass the thresholds.
func (f *QualityFilter) Filter(ctx context.Context, records []domain.ArticleRecord) []domain.ArticleRecord {
	if f.citations == nil || (f.minCitations == 0 && f.minHIndex == 0) {
		return records
	}

	kept := make([]domain.ArticleRecord, 0, len(records))
	for _, rec := range records {
		if f.passes(ctx, rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func (f *QualityFilter) passes(ctx context.Context, rec domain.ArticleRecord) bool {
	if f.minCitations > 0 {
		count, err := f.citations.ArticleCitations(ctx, rec.DOI, rec.Title)
		if err != nil {
			f.logger.Warn("citation lookup failed, keeping article", "title", rec.Title, "error", err)
		} else if count < f.minCitations {
			f.logger.Info("article below citation threshold",
				"title", rec.Title, "citations", count, "min", f.minCitations)
			return false
		}
	}

	if f.minHIndex > 0 && rec.Journal != "" {
		hIndex, err := f.citations.JournalHIndex(ctx, rec.Journal)
		if err != nil {
			f.logger.Warn("h-index lookup failed, keeping article", "journal", rec.Journal, "error", err)
		} else if hIndex < f.minHIndex {
			f.logger.Info("article below journal h-index threshold",
				"title", rec.Title, "journal", rec.Journal, "h_index", hIndex, "min", f.minHIndex)
			return false
		}
	}

	return true
}
