package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/david/tax-radar/internal/auth"
	"github.com/david/tax-radar/internal/db"
	"github.com/david/tax-radar/internal/ingest"
	"github.com/david/tax-radar/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Store is the read side of the database used by the API.
type Store interface {
	ListOpportunities(ctx context.Context, params db.ListParams) (*db.ListResult, error)
	ListAll(ctx context.Context) ([]models.Opportunity, error)
	GetByURL(ctx context.Context, url string) (*models.Opportunity, error)
	Sources(ctx context.Context) ([]models.SourceInfo, error)
	RecentRuns(ctx context.Context, limit int) ([]models.IngestRun, error)
}

// Runner runs the ingestion pipeline once.
type Runner interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
}

type Server struct {
	Echo        *echo.Echo
	Store       Store
	AuthService *auth.Service
	Runner      Runner
	log         *slog.Logger
}

func NewServer(store Store, authService *auth.Service, runner Runner, corsOrigins []string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.Warn("request failed", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:4200"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Echo:        e,
		Store:       store,
		AuthService: authService,
		Runner:      runner,
		log:         log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/lookup", s.handleGetOpportunity)
	api.GET("/articles", s.handleListArticles)
	api.GET("/sources", s.handleGetSources)

	api.POST("/auth/token", s.handleToken)

	admin := api.Group("")
	admin.Use(s.AuthService.Middleware)
	admin.POST("/refresh", s.handleRefresh)
	admin.GET("/runs", s.handleListRuns)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	params := db.ListParams{
		Source: strings.TrimSpace(c.QueryParam("source")),
		Type:   strings.TrimSpace(c.QueryParam("type")),
		Limit:  50,
	}
	if raw := c.QueryParam("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "min_score must be a non-negative number"})
		}
		params.MinScore = v
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 500 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}

	result, err := s.Store.ListOpportunities(c.Request().Context(), params)
	if err != nil {
		s.log.Error("failed to list opportunities", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	url := strings.TrimSpace(c.QueryParam("url"))
	if url == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}
	opp, err := s.Store.GetByURL(c.Request().Context(), url)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		s.log.Error("failed to get opportunity", "url", url, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleListArticles(c echo.Context) error {
	all, err := s.Store.ListAll(c.Request().Context())
	if err != nil {
		s.log.Error("failed to list articles", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if all == nil {
		all = []models.Opportunity{}
	}
	return c.JSON(http.StatusOK, all)
}

func (s *Server) handleGetSources(c echo.Context) error {
	sources, err := s.Store.Sources(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if sources == nil {
		sources = []models.SourceInfo{}
	}
	return c.JSON(http.StatusOK, sources)
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) handleToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	token, exp, err := s.AuthService.Login(req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCreds):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrLoginDisabled):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp.UTC().Format("2006-01-02T15:04:05Z")})
}

func (s *Server) handleRefresh(c echo.Context) error {
	res, err := s.Runner.Run(c.Request().Context())
	if errors.Is(err, ingest.ErrRunInProgress) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		s.log.Error("refresh failed", "err", err)
		body := map[string]any{"error": err.Error()}
		if res != nil {
			body["run_id"] = res.RunID
			body["stats"] = res.Stats
		}
		return c.JSON(http.StatusInternalServerError, body)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	runs, err := s.Store.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if runs == nil {
		runs = []models.IngestRun{}
	}
	return c.JSON(http.StatusOK, runs)
}
