package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"researchdigest/internal/config"
	"researchdigest/internal/identity"
	"researchdigest/internal/infrastructure/email"
	"researchdigest/internal/infrastructure/llm"
	"researchdigest/internal/infrastructure/metrics"
	"researchdigest/internal/infrastructure/parser"
	"researchdigest/internal/infrastructure/scheduler"
	"researchdigest/internal/logging"
	"researchdigest/internal/ports"
	"researchdigest/internal/relevance"
	"researchdigest/internal/scanner"
	"researchdigest/internal/summarize"
	"researchdigest/internal/tracker"
	"researchdigest/internal/usecase"
)

// Application wires configuration to the digest pipeline and its lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *tracker.Store
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.App.LogLevel)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivScanner(nil))
	source := parser.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	store := tracker.NewStore(tracker.SnapshotPath(cfg.App.StoragePath), baseLogger.With("component", "tracker"))

	var client summarize.Client
	if cfg.OpenAI.APIKey != "" {
		client = llm.NewOpenAIClient(cfg.OpenAI)
	} else {
		baseLogger.Warn("no OpenAI API key configured, every summary will be a fallback excerpt")
	}

	initialBackoff, maxBackoff := cfg.OpenAI.Backoff()
	summaryPipeline := summarize.NewPipeline(client, summarize.Config{
		MaxAttempts:      cfg.OpenAI.MaxAttempts,
		MaxSummaryLength: cfg.App.MaxSummaryLength,
		InitialBackoff:   initialBackoff,
		MaxBackoff:       maxBackoff,
	}, baseLogger.With("component", "summarize"))

	resolver := identity.NewResolver(cfg.QuerySources)
	assembler := usecase.NewAssembler(resolver, summaryPipeline, cfg.Topics,
		baseLogger.With("component", "assembler"))

	var citations ports.CitationSource
	if cfg.Quality.MinCitations > 0 || cfg.Quality.MinHIndex > 0 {
		citations = metrics.NewClient(cfg.Metrics.Endpoint)
	}
	quality := relevance.NewQualityFilter(cfg.Quality, citations, baseLogger.With("component", "quality"))

	var sink ports.DigestSink
	if cfg.Email.Configured() {
		sink = email.NewSender(cfg.Email)
	} else {
		baseLogger.Warn("no email delivery configured, digests will only be logged")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Store:         store,
		Assembler:     assembler,
		Quality:       quality,
		Sink:          sink,
		Topics:        cfg.Topics,
		RetentionDays: cfg.App.RetentionDays,
		Limits: usecase.Limits{
			MaxArticles: cfg.App.MaxArticlesToProcess,
			Concurrency: cfg.App.SummaryConcurrency,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, store: store, pipeline: pipeline}
}

// RunOnce loads the tracking snapshot and executes a single run.
func (a *Application) RunOnce(ctx context.Context) error {
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("load tracking snapshot: %w", err)
	}
	return a.pipeline.ProcessDay(ctx, time.Now())
}

// RunScheduled executes runs on the configured interval until ctx is done.
func (a *Application) RunScheduled(ctx context.Context) error {
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("load tracking snapshot: %w", err)
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.App.Interval())
	runner := usecase.NewRunner(driver, a.pipeline, a.logger.With("component", "runner"))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}
	a.logger.Info("scheduled runs started", "interval", a.cfg.App.Interval().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}
