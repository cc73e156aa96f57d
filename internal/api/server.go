package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/alerting"
	"github.com/patrickwarner/marketpulse/internal/cache"
	"github.com/patrickwarner/marketpulse/internal/config"
	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/loader"
	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// Server groups dependencies for HTTP handlers. Every request runs a full
// synchronous render pass: load the sources, aggregate (cache-assisted),
// then evaluate whatever the endpoint asks for. No state is kept between
// requests beyond the memoization cache.
type Server struct {
	Logger     *zap.Logger
	Config     config.Config
	Loader     *loader.Loader
	Cache      cache.Cache
	Metrics    observability.MetricsRegistry
	Rules      alerting.Rules
	Benchmarks insights.Benchmarks

	evaluator *alerting.Evaluator
}

// NewServer constructs a Server, deriving alert thresholds and benchmarks
// from the configuration.
func NewServer(logger *zap.Logger, cfg config.Config, ld *loader.Loader, c cache.Cache, metrics observability.MetricsRegistry) *Server {
	return &Server{
		Logger:  logger,
		Config:  cfg,
		Loader:  ld,
		Cache:   c,
		Metrics: metrics,
		Rules: alerting.Rules{
			SpendRisePct:   cfg.AlertSpendRisePct,
			RevenueDropPct: cfg.AlertRevenueDropPct,
			CPCRisePct:     cfg.AlertCPCRisePct,
			ROASFloor:      cfg.AlertROASFloor,
			ROASPeriods:    cfg.AlertROASPeriods,
		},
		Benchmarks: insights.Benchmarks{
			ROAS: cfg.BenchmarkROAS,
			CTR:  cfg.BenchmarkCTR,
			CPC:  cfg.BenchmarkCPC,
		},
		evaluator: alerting.NewEvaluator(logger, metrics),
	}
}

// RegisterRoutes mounts the JSON API and the health check on the router.
func (s *Server) RegisterRoutes(r *mux.Router) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/metrics", s.MetricsHandler).Methods("GET")
	apiRouter.HandleFunc("/compare", s.CompareHandler).Methods("GET")
	apiRouter.HandleFunc("/summary", s.SummaryHandler).Methods("GET")
	apiRouter.HandleFunc("/alerts", s.AlertsHandler).Methods("GET")
	apiRouter.HandleFunc("/insights", s.InsightsHandler).Methods("GET")
	apiRouter.HandleFunc("/trends", s.TrendsHandler).Methods("GET")

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
}

// sources lists the configured CSV inputs in fingerprint order.
func (s *Server) sources() []loader.Source {
	return []loader.Source{
		{Name: "facebook", Path: s.Config.SourcePath(s.Config.FacebookFile), Kind: loader.KindChannel},
		{Name: "google", Path: s.Config.SourcePath(s.Config.GoogleFile), Kind: loader.KindChannel},
		{Name: "tiktok", Path: s.Config.SourcePath(s.Config.TikTokFile), Kind: loader.KindChannel},
		{Name: "business", Path: s.Config.SourcePath(s.Config.BusinessFile), Kind: loader.KindRevenue},
	}
}

// renderPass is the product of one load-and-aggregate cycle. Diagnostics
// combine loader and engine findings.
type renderPass struct {
	dataset *models.Dataset
	rows    []models.MetricRow
	diags   []models.Diagnostic
}

// render loads the sources and aggregates them under the given grouping.
// The heavy lifting is memoized by (fingerprint, grouping), so repeated
// renders of unchanged files skip straight to the cached rows.
func (s *Server) render(r *http.Request, g reporting.Grouping) (*renderPass, error) {
	start := time.Now()
	defer func() {
		s.Metrics.IncrementRenderPasses()
		s.Metrics.RecordRenderLatency(time.Since(start))
	}()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	ds, err := s.Loader.Load(r.Context(), s.sources())
	if err != nil {
		return nil, err
	}

	rows, engineDiags := s.cachedAggregate(r.Context(), logger, ds, g)

	diags := make([]models.Diagnostic, 0, len(ds.Diagnostics)+len(engineDiags))
	diags = append(diags, ds.Diagnostics...)
	diags = append(diags, engineDiags...)

	return &renderPass{dataset: ds, rows: rows, diags: diags}, nil
}

// aggregatePayload is the cache representation of one Aggregate call.
type aggregatePayload struct {
	Rows        []models.MetricRow  `json:"rows"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

func (s *Server) cachedAggregate(ctx context.Context, logger *zap.Logger, ds *models.Dataset, g reporting.Grouping) ([]models.MetricRow, []models.Diagnostic) {
	if s.Cache == nil || !s.Config.CacheEnabled {
		return reporting.Aggregate(ds, g)
	}

	key := cache.Key(ds.Fingerprint, "aggregate", string(g))
	raw, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var payload aggregatePayload
		decodeErr := json.Unmarshal(raw, &payload)
		if decodeErr == nil {
			s.Metrics.IncrementCacheHits()
			return payload.Rows, payload.Diagnostics
		}
		logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(decodeErr))
	}
	s.Metrics.IncrementCacheMisses()

	rows, diags := reporting.Aggregate(ds, g)
	if raw, err := json.Marshal(aggregatePayload{Rows: rows, Diagnostics: diags}); err == nil {
		if err := s.Cache.Set(ctx, key, raw, s.Config.CacheTTL); err != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, diags
}

// grouping resolves the grouping query parameter, falling back to the
// configured default.
func (s *Server) grouping(r *http.Request) (reporting.Grouping, error) {
	raw := r.URL.Query().Get("grouping")
	if raw == "" {
		raw = s.Config.DefaultGrouping
	}
	return reporting.ParseGrouping(raw)
}
