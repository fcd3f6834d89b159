package summarize

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"researchdigest/internal/domain"
)

// Client is the narrow capability the pipeline needs from a concrete
// summarization provider. Failures must carry a retry class (see Transient
// and Permanent); unclassified errors are treated as transient.
type Client interface {
	Summarize(ctx context.Context, record domain.ArticleRecord, maxLength int) (string, error)
}

// Config bounds the retry loop and the output size.
type Config struct {
	MaxAttempts      int
	MaxSummaryLength int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

// Pipeline wraps an unreliable summarizer with bounded retries and a
// deterministic fallback. Summarize never fails: total external outage
// degrades output quality, not forward progress.
//
// The pipeline holds no mutable state between calls, so it is safe to invoke
// concurrently for distinct records.
type Pipeline struct {
	client Client
	cfg    Config
	logger *slog.Logger
}

// NewPipeline builds a pipeline around a provider client. A nil client means
// every article gets the fallback summary.
func NewPipeline(client Client, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}
	return &Pipeline{client: client, cfg: cfg, logger: logger}
}

// Summarize produces a summary for the record, attempting the external call up
// to MaxAttempts times. Transient failures wait out the backoff schedule;
// permanent failures abort the loop. Exhaustion or a permanent failure yields
// the extractive fallback tagged accordingly.
func (p *Pipeline) Summarize(ctx context.Context, id string, record domain.ArticleRecord) domain.SummaryResult {
	if p.client == nil {
		return p.fallback(id, record)
	}

	bo := p.newBackoff()
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		text, err := p.client.Summarize(ctx, record, p.cfg.MaxSummaryLength)
		if err == nil {
			return domain.SummaryResult{
				Identity:   id,
				Summary:    truncate(text, p.cfg.MaxSummaryLength),
				Provenance: domain.ProvenanceModel,
			}
		}

		if Classify(err) == ClassPermanent {
			p.logger.Warn("summarizer rejected article, using fallback",
				"title", record.Title, "attempt", attempt, "error", err)
			break
		}

		p.logger.Warn("summarizer attempt failed",
			"title", record.Title, "attempt", attempt, "error", err)

		if attempt == p.cfg.MaxAttempts {
			break
		}

		delay := bo.NextBackOff()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return p.fallback(id, record)
		}
	}

	return p.fallback(id, record)
}

func (p *Pipeline) fallback(id string, record domain.ArticleRecord) domain.SummaryResult {
	return domain.SummaryResult{
		Identity:   id,
		Summary:    fallbackSummary(record.Body(), p.cfg.MaxSummaryLength),
		Provenance: domain.ProvenanceFallback,
	}
}

// newBackoff returns a fresh schedule per call; sharing one across concurrent
// summarizations would corrupt its interval state.
func (p *Pipeline) newBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.InitialBackoff
	bo.MaxInterval = p.cfg.MaxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	return bo
}
