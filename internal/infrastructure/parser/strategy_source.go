package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
	"researchdigest/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchDaily iterates over configured sources and executes their scanners.
// A broken source is skipped with a warning so the remaining feeds still
// contribute to the run.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.ArticleRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch daily", "sources", len(s.sources), "day", day.Format("2006-01-02"))

	var aggregated []domain.ArticleRecord
	for _, src := range s.sources {
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			Day:        day,
			SourceName: src.Name,
			Options:    src.Options,
			Categories: toScannerCategories(src.Categories),
		}

		records, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("source scan failed, continuing without it", "source", src.Name, "error", err)
			continue
		}

		for i := range records {
			if records[i].Source == "" {
				records[i].Source = src.Name
			}
		}
		s.debug("source produced records", "source", src.Name, "count", len(records))
		aggregated = append(aggregated, records...)
	}

	s.debug("strategy source done", "total_records", len(aggregated))
	return aggregated, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
