package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/david/tax-radar/internal/models"
	"github.com/david/tax-radar/internal/nlp"
	"github.com/david/tax-radar/internal/opportunity"
	"github.com/google/uuid"
)

// ErrRunInProgress is returned by Run while another run is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Run statuses stored in ingest_runs.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Store persists scored records.
type Store interface {
	UpsertBatch(ctx context.Context, opps []models.Opportunity) error
}

// RunRecorder keeps bookkeeping rows for runs. Optional.
type RunRecorder interface {
	StartRun(ctx context.Context, runID string) error
	FinishRun(ctx context.Context, run models.IngestRun, details map[string]any) error
}

type PipelineConfig struct {
	// RunTimeout bounds a whole Run, collection included.
	RunTimeout time.Duration
	// Sources restricts Run to these source IDs, active or not.
	// Empty means every active source.
	Sources []string
}

// Deps are the collaborators of a Pipeline. Registry, Strategies and Fetcher
// are only needed by Run; Process works without them.
type Deps struct {
	Registry   *Registry
	Strategies *StrategyFactory
	Fetcher    Fetcher
	Normalizer *Normalizer
	Annotator  *nlp.Annotator
	Scorer     *opportunity.Scorer
	Store      Store
	Runs       RunRecorder
	Log        *slog.Logger
}

// RunStats counts what happened during a run.
type RunStats struct {
	SourcesOK        int `json:"sources_ok"`
	SourcesFailed    int `json:"sources_failed"`
	Collected        int `json:"collected"`
	DroppedDates     int `json:"dropped_dates"`
	Duplicates       int `json:"duplicates"`
	Annotated        int `json:"annotated"`
	AnnotationErrors int `json:"annotation_errors"`
	Opportunities    int `json:"opportunities"`
	Saved            int `json:"saved"`
}

// Errors is the number of recoverable failures in the run.
func (s RunStats) Errors() int {
	return s.SourcesFailed + s.DroppedDates + s.AnnotationErrors
}

// RunResult is the outcome of a run. Opportunities is the score > 0 view,
// highest score first.
type RunResult struct {
	RunID         string               `json:"run_id"`
	Stats         RunStats             `json:"stats"`
	Opportunities []models.Opportunity `json:"opportunities"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
}

// Pipeline sequences collection, date normalization, annotation, scoring
// and persistence.
type Pipeline struct {
	cfg     PipelineConfig
	deps    Deps
	log     *slog.Logger
	running atomic.Bool
}

func NewPipeline(cfg PipelineConfig, deps Deps) (*Pipeline, error) {
	if deps.Annotator == nil {
		return nil, fmt.Errorf("pipeline: %w", nlp.ErrAnalyzerUnavailable)
	}
	if deps.Scorer == nil || deps.Store == nil {
		return nil, errors.New("pipeline: scorer and store are required")
	}
	if deps.Normalizer == nil {
		deps.Normalizer = NewNormalizer(nil, deps.Log)
	}
	if deps.Strategies == nil {
		deps.Strategies = DefaultStrategies()
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, deps: deps, log: log}, nil
}

// Run collects from every active source and processes the result.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	if p.deps.Registry == nil || p.deps.Fetcher == nil {
		return nil, errors.New("pipeline: registry and fetcher are required to run")
	}
	sources, err := p.sources()
	if err != nil {
		return nil, err
	}

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	res := &RunResult{RunID: uuid.NewString(), StartedAt: time.Now(), Opportunities: []models.Opportunity{}}
	log := p.log.With("run_id", res.RunID)

	recorded := false
	if p.deps.Runs != nil {
		if err := p.deps.Runs.StartRun(ctx, res.RunID); err != nil {
			log.Warn("failed to create ingest run", "err", err)
		} else {
			recorded = true
		}
	}

	var runErr error
	defer func() {
		res.FinishedAt = time.Now()
		if !recorded {
			return
		}
		status := RunStatusCompleted
		if runErr != nil {
			status = RunStatusFailed
		}
		details := map[string]any{
			"duration_ms": res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
			"stats":       res.Stats,
		}
		if runErr != nil {
			details["error"] = runErr.Error()
		}
		// The run context may already be expired.
		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := p.deps.Runs.FinishRun(finishCtx, models.IngestRun{
			RunID:      res.RunID,
			Status:     status,
			ItemsFound: res.Stats.Collected,
			ItemsSaved: res.Stats.Saved,
			Errors:     res.Stats.Errors(),
		}, details)
		if err != nil {
			log.Warn("failed to update ingest run", "err", err)
		}
	}()

	log.Info("pipeline run started", "sources", len(sources))
	raws := p.collect(ctx, log, sources, &res.Stats)
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("collect: %w", err)
		return res, runErr
	}

	runErr = p.process(ctx, log, raws, res)
	if runErr != nil {
		return res, runErr
	}

	log.Info("pipeline run finished",
		"collected", res.Stats.Collected,
		"dropped_dates", res.Stats.DroppedDates,
		"annotation_errors", res.Stats.AnnotationErrors,
		"saved", res.Stats.Saved,
		"opportunities", res.Stats.Opportunities,
	)
	return res, nil
}

// Process runs the stages after collection on already-scraped items.
// It shares the run guard with Run and fails with ErrRunInProgress while
// either is active.
func (p *Pipeline) Process(ctx context.Context, raws []RawNewsItem) (*RunResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	res := &RunResult{RunID: uuid.NewString(), StartedAt: time.Now(), Opportunities: []models.Opportunity{}}
	res.Stats.Collected = len(raws)
	err := p.process(ctx, p.log.With("run_id", res.RunID), raws, res)
	res.FinishedAt = time.Now()
	return res, err
}

func (p *Pipeline) sources() ([]SourceConfig, error) {
	if len(p.cfg.Sources) == 0 {
		return p.deps.Registry.Active(), nil
	}
	out := make([]SourceConfig, 0, len(p.cfg.Sources))
	for _, id := range p.cfg.Sources {
		src, ok := p.deps.Registry.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", id)
		}
		if strings.TrimSpace(src.BaseURL) == "" {
			return nil, fmt.Errorf("source %q has no base URL", id)
		}
		out = append(out, src)
	}
	return out, nil
}

func (p *Pipeline) collect(ctx context.Context, log *slog.Logger, sources []SourceConfig, stats *RunStats) []RawNewsItem {
	var all []RawNewsItem
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		strategy, err := p.deps.Strategies.Get(src.Strategy)
		if err != nil {
			stats.SourcesFailed++
			log.Error("unknown strategy", "source", src.ID, "strategy", src.Strategy)
			continue
		}

		items, err := strategy.Collect(ctx, src, p.deps.Fetcher)
		if err != nil {
			stats.SourcesFailed++
			log.Error("source failed", "source", src.ID, "err", err)
			continue
		}
		if len(items) == 0 {
			log.Warn("source returned no items, selectors may be stale", "source", src.ID)
		}
		stats.SourcesOK++
		log.Info("collected", "source", src.ID, "items", len(items))
		all = append(all, items...)
	}
	stats.Collected = len(all)
	return all
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, raws []RawNewsItem, res *RunResult) error {
	if len(raws) == 0 {
		log.Info("no items collected")
		return nil
	}

	norm := p.deps.Normalizer.NormalizeItems(raws)
	res.Stats.DroppedDates = norm.Dropped
	if norm.Dropped > 0 {
		log.Warn("dropped items with unparseable dates", "count", norm.Dropped)
	}

	items, dups := dedupeByURL(norm.Items)
	res.Stats.Duplicates = dups
	if len(items) == 0 {
		log.Info("no items with valid dates")
		return nil
	}

	annotated := make([]models.Opportunity, 0, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("annotate: %w", err)
		}
		ann, err := p.deps.Annotator.Annotate(ctx, it.AnnotationText())
		if err != nil {
			res.Stats.AnnotationErrors++
			log.Warn("annotation failed, keeping domain keywords only", "url", it.URL, "err", err)
		}
		annotated = append(annotated, models.Opportunity{
			ID:        it.URL,
			Title:     it.Title,
			URL:       it.URL,
			Date:      it.Date,
			Source:    it.Source,
			Summary:   it.Summary,
			Keywords:  ann.Keywords,
			Entities:  ann.Entities,
			MainTopic: ann.MainTopic,
		})
	}
	res.Stats.Annotated = len(annotated)

	all, opps := p.deps.Scorer.Identify(annotated)

	if err := p.deps.Store.UpsertBatch(ctx, all); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	res.Stats.Saved = len(all)
	res.Stats.Opportunities = len(opps)
	res.Opportunities = opps
	return nil
}

// dedupeByURL keeps the first item per URL.
func dedupeByURL(items []NewsItem) ([]NewsItem, int) {
	seen := make(map[string]bool, len(items))
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		if seen[it.URL] {
			continue
		}
		seen[it.URL] = true
		out = append(out, it)
	}
	return out, len(items) - len(out)
}
