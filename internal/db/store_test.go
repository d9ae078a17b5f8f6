package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/david/tax-radar/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestKeywordsRoundTrip(t *testing.T) {
	kws := []string{"ηλεκτρονικά βιβλία", "νόμος", "φπα"}
	require.Equal(t, "ηλεκτρονικά βιβλία, νόμος, φπα", JoinKeywords(kws))
	require.Equal(t, kws, SplitKeywords(JoinKeywords(kws)))
	require.Equal(t, []string{}, SplitKeywords(""))
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []models.Entity
		wantErr bool
	}{
		{name: "valid", raw: `[{"text":"ΑΑΔΕ","type":"ORG"},{"text":"Ελλάδα","type":"LOC"}]`,
			want: []models.Entity{{Text: "ΑΑΔΕ", Type: "ORG"}, {Text: "Ελλάδα", Type: "LOC"}}},
		{name: "empty column", raw: ``, want: []models.Entity{}},
		{name: "null", raw: `null`, want: []models.Entity{}},
		{name: "empty array", raw: `[]`, want: []models.Entity{}},
		{name: "python repr", raw: `[('ΑΑΔΕ', 'ORG')]`, wantErr: true},
		{name: "unknown field", raw: `[{"text":"ΑΑΔΕ","type":"ORG","score":1}]`, wantErr: true},
		{name: "missing type", raw: `[{"text":"ΑΑΔΕ"}]`, wantErr: true},
		{name: "pair arrays", raw: `[["ΑΑΔΕ","ORG"]]`, wantErr: true},
		{name: "trailing data", raw: `[] []`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEntities([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeEntitiesNil(t *testing.T) {
	b, err := EncodeEntities(nil)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(b))
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "001_init.sql", files[0])
}

// The tests below need a disposable PostgreSQL database in DATABASE_URL.
func testStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = ApplyMigrations(ctx, pool, nil)
	require.NoError(t, err)
	return NewStore(pool, nil)
}

func TestUpsertBatchOverwritesByURL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	url := "https://example.test/" + uuid.NewString()
	t.Cleanup(func() { _, _ = s.pool.Exec(ctx, "DELETE FROM opportunities WHERE id = $1", url) })

	first := models.Opportunity{
		ID: url, URL: url, Title: "Νέος νόμος", Source: "Test",
		Date:     time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC),
		Keywords: []string{"νόμος"}, Entities: []models.Entity{{Text: "ΑΑΔΕ", Type: "ORG"}},
		MainTopic: "tax-legislation", Score: 9, Type: "tax-legislation-change",
	}
	require.NoError(t, s.UpsertBatch(ctx, []models.Opportunity{first}))

	second := first
	second.Title = "Νέος νόμος (διόρθωση)"
	second.Score = 4
	require.NoError(t, s.UpsertBatch(ctx, []models.Opportunity{second}))

	got, err := s.GetByURL(ctx, url)
	require.NoError(t, err)
	require.Equal(t, "Νέος νόμος (διόρθωση)", got.Title)
	require.Equal(t, 4.0, got.Score)
	require.Equal(t, []string{"νόμος"}, got.Keywords)
	require.Equal(t, first.Entities, got.Entities)
	require.True(t, got.Date.Equal(first.Date))

	var n int
	require.NoError(t, s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities WHERE url = $1", url).Scan(&n))
	require.Equal(t, 1, n)
}

func TestUpsertBatchRollsBackOnFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	good := "https://example.test/" + uuid.NewString()
	t.Cleanup(func() { _, _ = s.pool.Exec(ctx, "DELETE FROM opportunities WHERE id = $1", good) })

	batch := []models.Opportunity{
		{ID: good, URL: good, Title: "ok", Source: "Test", Date: time.Now().UTC(), Type: "unclassified"},
		// PostgreSQL rejects NUL bytes in text columns.
		{ID: good + "-bad", URL: good + "-bad", Title: "\x00", Source: "Test", Date: time.Now().UTC(), Type: "unclassified"},
	}
	require.Error(t, s.UpsertBatch(ctx, batch))

	_, err := s.GetByURL(ctx, good)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByURLMalformedEntities(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	url := "https://example.test/" + uuid.NewString()
	t.Cleanup(func() { _, _ = s.pool.Exec(ctx, "DELETE FROM opportunities WHERE id = $1", url) })

	_, err := s.pool.Exec(ctx, `INSERT INTO opportunities (id, title, url, date, source, entities)
		VALUES ($1, 'x', $1, '2025-07-09', 'Test', '[{"label":"ORG"}]'::jsonb)`, url)
	require.NoError(t, err)

	got, err := s.GetByURL(ctx, url)
	require.NoError(t, err)
	require.Empty(t, got.Entities)
}
