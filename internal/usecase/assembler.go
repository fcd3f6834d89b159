package usecase

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"researchdigest/internal/domain"
	"researchdigest/internal/identity"
	"researchdigest/internal/relevance"
	"researchdigest/internal/summarize"
	"researchdigest/internal/tracker"
)

// Limits bounds one assembly pass.
type Limits struct {
	// MaxArticles caps how many candidates are summarized per run.
	MaxArticles int
	// Concurrency bounds parallel summarization calls.
	Concurrency int
}

// Assembler turns a batch of candidate records into the run's digest: it
// resolves identities, drops everything already tracked, caps the batch, and
// summarizes the survivors. It holds no state across invocations; all
// persistent state lives in the tracking store.
type Assembler struct {
	resolver *identity.Resolver
	pipeline *summarize.Pipeline
	topics   []string
	logger   *slog.Logger
}

// NewAssembler wires the resolver and summarization pipeline.
func NewAssembler(resolver *identity.Resolver, pipeline *summarize.Pipeline, topics []string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{resolver: resolver, pipeline: pipeline, topics: topics, logger: logger}
}

type candidate struct {
	id     string
	record domain.ArticleRecord
	order  int
}

// Build produces the ordered digest entries for the email sink and the new
// tracking entries for the store. Every summarized candidate is tracked, model
// and fallback summaries alike: a fallback-summarized article counts as
// processed and must not be retried next run.
func (a *Assembler) Build(ctx context.Context, candidates []domain.ArticleRecord, store *tracker.Store, limits Limits) ([]domain.DigestEntry, []tracker.TrackedArticle) {
	selected := a.selectCandidates(candidates, store, limits.MaxArticles)
	if len(selected) == 0 {
		return nil, nil
	}

	results := make([]domain.SummaryResult, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	concurrency := limits.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i, cand := range selected {
		g.Go(func() error {
			results[i] = a.pipeline.Summarize(gctx, cand.id, cand.record)
			return nil
		})
	}
	// Summarization never fails; the group exists only to bound concurrency.
	_ = g.Wait()

	entries := make([]domain.DigestEntry, 0, len(selected))
	tracked := make([]tracker.TrackedArticle, 0, len(selected))
	for i, cand := range selected {
		entries = append(entries, domain.DigestEntry{
			Title:      cand.record.Title,
			URL:        cand.record.URL,
			Source:     cand.record.Source,
			Summary:    results[i].Summary,
			Provenance: results[i].Provenance,
			Relevance:  relevance.Score(cand.record, a.topics),
		})
		tracked = append(tracked, tracker.TrackedArticle{
			Identity: cand.id,
			Entry: tracker.Entry{
				Source: cand.record.Source,
				Title:  cand.record.Title,
				URL:    cand.record.URL,
			},
		})
	}

	return entries, tracked
}

// selectCandidates resolves identities, drops tracked and in-batch duplicates,
// and caps the batch at earliest publication first (fetch order on ties).
func (a *Assembler) selectCandidates(records []domain.ArticleRecord, store *tracker.Store, maxArticles int) []candidate {
	seen := map[string]bool{}
	fresh := make([]candidate, 0, len(records))
	for i, rec := range records {
		id := a.resolver.Resolve(rec)
		if store.Contains(id) {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		fresh = append(fresh, candidate{id: id, record: rec, order: i})
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		if !fresh[i].record.PublishedAt.Equal(fresh[j].record.PublishedAt) {
			return fresh[i].record.PublishedAt.Before(fresh[j].record.PublishedAt)
		}
		return fresh[i].order < fresh[j].order
	})

	if maxArticles > 0 && len(fresh) > maxArticles {
		a.logger.Info("capping batch", "eligible", len(fresh), "max", maxArticles)
		fresh = fresh[:maxArticles]
	}
	return fresh
}
