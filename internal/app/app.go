// Package app wires configuration into the pipeline and its collaborators.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/david/tax-radar/internal/ai"
	"github.com/david/tax-radar/internal/config"
	"github.com/david/tax-radar/internal/db"
	"github.com/david/tax-radar/internal/ingest"
	"github.com/david/tax-radar/internal/nlp"
	"github.com/david/tax-radar/internal/opportunity"
	"github.com/david/tax-radar/internal/taxonomy"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, *db.Store, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, db.NewStore(pool, log), nil
}

// LoadTaxonomy reads cfg.TaxonomyFile, or the built-in taxonomy when unset.
func LoadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg.TaxonomyFile == "" {
		return taxonomy.Default()
	}
	return taxonomy.Load(cfg.TaxonomyFile)
}

// NewFetcher returns the configured page fetcher.
func NewFetcher(cfg *config.Config, log *slog.Logger) (ingest.Fetcher, error) {
	fc := ingest.FetchConfig{TimeoutSeconds: int(cfg.FetchTimeout.Seconds())}
	switch cfg.Fetcher {
	case "http", "":
		return ingest.NewHTTPFetcher(fc, log), nil
	case "colly":
		return ingest.NewCollyFetcher(fc, log), nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", cfg.Fetcher)
	}
}

// NewAnnotator builds the analyzer backend and checks that it is reachable.
// The pipeline cannot run without it, so any failure here is fatal.
func NewAnnotator(ctx context.Context, cfg *config.Config, tax *taxonomy.Taxonomy) (*nlp.Annotator, error) {
	analyzer, err := ai.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nlp.ErrAnalyzerUnavailable, err)
	}
	annotator, err := nlp.NewAnnotator(analyzer, tax)
	if err != nil {
		return nil, err
	}

	readyCtx, cancel := context.WithTimeout(ctx, cfg.Analyzer.Timeout)
	defer cancel()
	if err := annotator.Ready(readyCtx); err != nil {
		return nil, err
	}
	return annotator, nil
}

// NewPipeline assembles a pipeline persisting into store. sources limits
// runs to those source IDs.
func NewPipeline(ctx context.Context, cfg *config.Config, store *db.Store, log *slog.Logger, sources ...string) (*ingest.Pipeline, error) {
	tax, err := LoadTaxonomy(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewFetcher(cfg, log)
	if err != nil {
		return nil, err
	}
	annotator, err := NewAnnotator(ctx, cfg, tax)
	if err != nil {
		return nil, err
	}

	return ingest.NewPipeline(ingest.PipelineConfig{RunTimeout: cfg.RunTimeout, Sources: sources}, ingest.Deps{
		Registry:   registry,
		Strategies: ingest.DefaultStrategies(),
		Fetcher:    fetcher,
		Normalizer: ingest.NewNormalizer(ingest.NewDateParser(), log),
		Annotator:  annotator,
		Scorer:     opportunity.NewScorer(tax),
		Store:      store,
		Runs:       store,
		Log:        log,
	})
}
