package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/david/tax-radar/internal/auth"
	"github.com/david/tax-radar/internal/db"
	"github.com/david/tax-radar/internal/ingest"
	"github.com/david/tax-radar/internal/logger"
	"github.com/david/tax-radar/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	opps       []models.Opportunity
	lastParams db.ListParams
	err        error
}

func (f *fakeStore) ListOpportunities(_ context.Context, p db.ListParams) (*db.ListResult, error) {
	f.lastParams = p
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Opportunity
	for _, o := range f.opps {
		if o.Score > 0 && (p.Source == "" || o.Source == p.Source) {
			out = append(out, o)
		}
	}
	return &db.ListResult{Opportunities: out, Total: len(out), Limit: p.Limit, Offset: p.Offset}, nil
}

func (f *fakeStore) ListAll(context.Context) ([]models.Opportunity, error) {
	return f.opps, f.err
}

func (f *fakeStore) GetByURL(_ context.Context, url string) (*models.Opportunity, error) {
	for _, o := range f.opps {
		if o.URL == url {
			return &o, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) Sources(context.Context) ([]models.SourceInfo, error) {
	return []models.SourceInfo{{Source: "Capital.gr", Articles: 2, Opportunities: 1}}, nil
}

func (f *fakeStore) RecentRuns(context.Context, int) ([]models.IngestRun, error) {
	return nil, nil
}

type fakeRunner struct {
	res *ingest.RunResult
	err error
}

func (r *fakeRunner) Run(context.Context) (*ingest.RunResult, error) {
	return r.res, r.err
}

func newTestServer(t *testing.T, store *fakeStore, runner *fakeRunner) *Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc, err := auth.NewService("secret", string(hash), nil)
	require.NoError(t, err)
	return NewServer(store, authSvc, runner, nil, logger.Discard())
}

func do(s *Server, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(s, http.MethodPost, "/api/v1/auth/token", `{"password":"admin-pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func sampleOpps() []models.Opportunity {
	d := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	return []models.Opportunity{
		{ID: "https://a/1", URL: "https://a/1", Title: "ΕΣΠΑ", Source: "Capital.gr", Date: d, Score: 12, Type: "development-incentive"},
		{ID: "https://a/2", URL: "https://a/2", Title: "καιρός", Source: "Capital.gr", Date: d, Score: 0, Type: "unclassified"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{})
	rec := do(s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestListOpportunities(t *testing.T) {
	store := &fakeStore{opps: sampleOpps()}
	s := newTestServer(t, store, &fakeRunner{})

	rec := do(s, http.MethodGet, "/api/v1/opportunities?source=Capital.gr&type=development-incentive&min_score=2.5&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, db.ListParams{Source: "Capital.gr", Type: "development-incentive", MinScore: 2.5, Limit: 10}, store.lastParams)

	var res db.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Opportunities, 1)
	require.Equal(t, 12.0, res.Opportunities[0].Score)
}

func TestListOpportunities_BadMinScore(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{})
	rec := do(s, http.MethodGet, "/api/v1/opportunities?min_score=abc", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOpportunities_StoreError(t *testing.T) {
	s := newTestServer(t, &fakeStore{err: errors.New("db down")}, &fakeRunner{})
	rec := do(s, http.MethodGet, "/api/v1/opportunities", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
}

func TestArticlesAndLookup(t *testing.T) {
	s := newTestServer(t, &fakeStore{opps: sampleOpps()}, &fakeRunner{})

	rec := do(s, http.MethodGet, "/api/v1/articles", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Opportunity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)

	rec = do(s, http.MethodGet, "/api/v1/opportunities/lookup?url=https://a/2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"opportunity_type":"unclassified"`)

	rec = do(s, http.MethodGet, "/api/v1/opportunities/lookup?url=https://a/404", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/opportunities/lookup", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSources(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{})
	rec := do(s, http.MethodGet, "/api/v1/sources", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"source":"Capital.gr"`)
}

func TestToken_WrongPassword(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{})
	rec := do(s, http.MethodPost, "/api/v1/auth/token", `{"password":"nope"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/v1/auth/token", `{}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	runner := &fakeRunner{res: &ingest.RunResult{
		RunID:         "run-1",
		Stats:         ingest.RunStats{Collected: 3, Saved: 3, Opportunities: 2},
		Opportunities: sampleOpps()[:1],
	}}
	s := newTestServer(t, &fakeStore{}, runner)

	rec := do(s, http.MethodPost, "/api/v1/refresh", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := login(t, s)
	rec = do(s, http.MethodPost, "/api/v1/refresh", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var res ingest.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "run-1", res.RunID)
	require.Equal(t, 2, res.Stats.Opportunities)
	require.Len(t, res.Opportunities, 1)
}

func TestRefresh_Conflict(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{err: ingest.ErrRunInProgress})
	rec := do(s, http.MethodPost, "/api/v1/refresh", "", login(t, s))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefresh_Failure(t *testing.T) {
	runner := &fakeRunner{res: &ingest.RunResult{RunID: "run-2"}, err: errors.New("persist: boom")}
	s := newTestServer(t, &fakeStore{}, runner)
	rec := do(s, http.MethodPost, "/api/v1/refresh", "", login(t, s))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"run_id":"run-2"`)
}

func TestRuns_RequireToken(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeRunner{})
	require.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/v1/runs", "", "").Code)

	rec := do(s, http.MethodGet, "/api/v1/runs", "", login(t, s))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}
