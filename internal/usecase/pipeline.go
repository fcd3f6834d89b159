package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
	"researchdigest/internal/relevance"
	"researchdigest/internal/tracker"
)

// PipelineDeps wires the collaborators of one run into the orchestration.
type PipelineDeps struct {
	Source        ports.ArticleSource
	Store         *tracker.Store
	Assembler     *Assembler
	Quality       *relevance.QualityFilter
	Sink          ports.DigestSink
	Topics        []string
	RetentionDays int
	Limits        Limits
	Logger        *slog.Logger
}

// Pipeline implements one digest run: retention sweep, fetch, filter,
// assemble, track, persist, deliver. External fetch or delivery trouble
// degrades the digest; only a failed persist aborts the run.
type Pipeline struct {
	source        ports.ArticleSource
	store         *tracker.Store
	assembler     *Assembler
	quality       *relevance.QualityFilter
	sink          ports.DigestSink
	topics        []string
	retentionDays int
	limits        Limits
	logger        *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:        deps.Source,
		store:         deps.Store,
		assembler:     deps.Assembler,
		quality:       deps.Quality,
		sink:          deps.Sink,
		topics:        deps.Topics,
		retentionDays: deps.RetentionDays,
		limits:        deps.Limits,
		logger:        logger,
	}
}

// ProcessDay executes a single run.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)
	log.Info("starting run", "day", day.Format("2006-01-02"))

	dirty := false
	if evicted := p.store.EvictOlderThan(p.retentionDays); evicted > 0 {
		log.Info("evicted expired tracking entries", "count", evicted, "retention_days", p.retentionDays)
		dirty = true
	}

	records, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		if dirty {
			if persistErr := p.store.Persist(); persistErr != nil {
				return fmt.Errorf("persist tracking after eviction: %w", persistErr)
			}
		}
		return fmt.Errorf("fetch articles: %w", err)
	}
	log.Info("fetched articles", "count", len(records))

	topical := make([]domain.ArticleRecord, 0, len(records))
	for _, rec := range records {
		if relevance.MatchesTopics(rec, p.topics) {
			topical = append(topical, rec)
		}
	}
	if len(topical) < len(records) {
		log.Info("filtered by topic", "kept", len(topical), "dropped", len(records)-len(topical))
	}

	if p.quality != nil {
		before := len(topical)
		topical = p.quality.Filter(ctx, topical)
		if len(topical) < before {
			log.Info("filtered by quality", "kept", len(topical), "dropped", before-len(topical))
		}
	}

	entries, tracked := p.assembler.Build(ctx, topical, p.store, p.limits)
	for _, item := range tracked {
		p.store.Record(item.Identity, item.Entry)
		dirty = true
	}

	if dirty {
		if err := p.store.Persist(); err != nil {
			return fmt.Errorf("persist tracking snapshot: %w", err)
		}
	}

	if len(entries) == 0 {
		log.Info("no new articles this run")
		return nil
	}

	fallbacks := 0
	for _, entry := range entries {
		if entry.Provenance == domain.ProvenanceFallback {
			fallbacks++
		}
	}
	log.Info("digest assembled", "articles", len(entries), "fallback_summaries", fallbacks)

	if p.sink == nil {
		return nil
	}
	// Readers see the most relevant articles first.
	entries = relevance.Rank(entries)
	if err := p.sink.SendDigest(ctx, entries); err != nil {
		// Tracking already persisted; losing one delivery is preferable to
		// re-summarizing the same articles forever.
		log.Error("digest delivery failed", "error", err)
		return nil
	}
	log.Info("digest delivered", "articles", len(entries))
	return nil
}
