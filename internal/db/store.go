package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/david/tax-radar/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewStore(pool *pgxpool.Pool, log *slog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

type ListParams struct {
	Source   string
	Type     string
	MinScore float64
	Limit    int
	Offset   int
}

type ListResult struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

// selectCols is the column list shared by every read query.
const selectCols = `id, title, url, date, source, summary, keywords, entities,
	main_topic, opportunity_score, opportunity_type, added_date, updated_at`

func (s *Store) scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var summary, mainTopic *string
	var keywords string
	var entitiesRaw []byte

	err := scan(
		&o.ID, &o.Title, &o.URL, &o.Date, &o.Source, &summary, &keywords, &entitiesRaw,
		&mainTopic, &o.Score, &o.Type, &o.AddedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if summary != nil {
		o.Summary = *summary
	}
	if mainTopic != nil {
		o.MainTopic = *mainTopic
	}
	o.Keywords = SplitKeywords(keywords)

	entities, err := DecodeEntities(entitiesRaw)
	if err != nil {
		if s.log != nil {
			s.log.Warn("malformed entities column, using empty list", "id", o.ID, "err", err)
		}
		entities = []models.Entity{}
	}
	o.Entities = entities
	return o, nil
}

const upsertSQL = `
	INSERT INTO opportunities (
		id, title, url, date, source, summary, keywords, entities,
		main_topic, opportunity_score, opportunity_type
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		date = EXCLUDED.date,
		source = EXCLUDED.source,
		summary = EXCLUDED.summary,
		keywords = EXCLUDED.keywords,
		entities = EXCLUDED.entities,
		main_topic = EXCLUDED.main_topic,
		opportunity_score = EXCLUDED.opportunity_score,
		opportunity_type = EXCLUDED.opportunity_type,
		updated_at = NOW()`

// UpsertBatch writes all records in one transaction keyed on id. Any failure
// rolls back the whole batch.
func (s *Store) UpsertBatch(ctx context.Context, opps []models.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range opps {
		if o.ID == "" {
			return fmt.Errorf("upsert %q: empty id", o.Title)
		}
		entities, err := EncodeEntities(o.Entities)
		if err != nil {
			return fmt.Errorf("encode entities for %s: %w", o.ID, err)
		}
		batch.Queue(upsertSQL,
			o.ID, o.Title, o.URL, o.Date, o.Source, nilIfEmpty(o.Summary), JoinKeywords(o.Keywords), entities,
			nilIfEmpty(o.MainTopic), o.Score, o.Type,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for _, o := range opps {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert %s: %w", o.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListAll returns every stored record, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.Opportunity, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM opportunities
		ORDER BY date DESC, added_date DESC
	`, selectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Opportunity{}
	for rows.Next() {
		o, err := s.scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOpportunities returns the opportunity view (score > 0), highest score first.
func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE opportunity_score > 0"
	var args []any
	argIdx := 1

	if params.Source != "" {
		where += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, params.Source)
		argIdx++
	}
	if params.Type != "" {
		where += fmt.Sprintf(" AND opportunity_type = $%d", argIdx)
		args = append(args, params.Type)
		argIdx++
	}
	if params.MinScore > 0 {
		where += fmt.Sprintf(" AND opportunity_score >= $%d", argIdx)
		args = append(args, params.MinScore)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count opportunities: %w", err)
	}

	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM opportunities
		%s
		ORDER BY opportunity_score DESC, date DESC, added_date DESC
		LIMIT $%d OFFSET $%d
	`, selectCols, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	res := &ListResult{Opportunities: []models.Opportunity{}, Total: total, Limit: params.Limit, Offset: params.Offset}
	for rows.Next() {
		o, err := s.scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		res.Opportunities = append(res.Opportunities, o)
	}
	return res, rows.Err()
}

// GetByURL returns the record stored for url.
func (s *Store) GetByURL(ctx context.Context, url string) (*models.Opportunity, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM opportunities
		WHERE id = $1
	`, selectCols), url)

	o, err := s.scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Sources lists every source with its article and opportunity counts.
func (s *Store) Sources(ctx context.Context) ([]models.SourceInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, COUNT(*), COUNT(*) FILTER (WHERE opportunity_score > 0)
		FROM opportunities
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SourceInfo{}
	for rows.Next() {
		var si models.SourceInfo
		if err := rows.Scan(&si.Source, &si.Articles, &si.Opportunities); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// StartRun records the beginning of a pipeline run.
func (s *Store) StartRun(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, "INSERT INTO ingest_runs (run_id, status) VALUES ($1, 'running')", runID)
	return err
}

// FinishRun stores the final counts and status of a run.
func (s *Store) FinishRun(ctx context.Context, run models.IngestRun, details map[string]any) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingest_runs SET
			status = $1,
			items_found = $2,
			items_saved = $3,
			errors = $4,
			completed_at = NOW(),
			details = $5
		WHERE run_id = $6`,
		run.Status, run.ItemsFound, run.ItemsSaved, run.Errors, details, run.RunID,
	)
	return err
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id::text, status, items_found, items_saved, errors, started_at, completed_at
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngestRun
	for rows.Next() {
		var r models.IngestRun
		if err := rows.Scan(&r.RunID, &r.Status, &r.ItemsFound, &r.ItemsSaved, &r.Errors, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// nilIfEmpty returns nil for empty strings so NULL is stored in DB.
func nilIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
