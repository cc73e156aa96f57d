package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/api"
	"github.com/patrickwarner/marketpulse/internal/cache"
	"github.com/patrickwarner/marketpulse/internal/config"
	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/loader"
	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// writeFixtures lays down six days of data with one dirty row per file.
// Google's CPC jumps on day four, TikTok runs below a 1.0 ROAS the whole
// window and doubles its spend on the last day while revenue dips, so every
// alert rule has something to find.
func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("Facebook.csv", `date,channel,spend,impressions,clicks,attributed_revenue
2025-06-01,facebook,100,10000,200,300
2025-06-02,facebook,100,10000,200,300
2025-06-03,facebook,100,10000,200,300
2025-06-04,facebook,100,10000,200,300
2025-06-05,facebook,100,10000,200,300
2025-06-06,facebook,100,10000,200,300
2025-06-07,facebook,100,10000,20000,300
`)
	write("Google.csv", `date,channel,spend,impressions,clicks
2025-06-01,google,100,10000,250
2025-06-02,google,100,10000,250
2025-06-03,google,100,10000,250
2025-06-04,google,100,10000,150
2025-06-05,google,100,10000,150
2025-06-06,google,100,10000,150
06/05/2025,google,100,10000,150
`)
	write("TikTok.csv", `date,channel,spend,impressions,clicks
2025-06-01,tiktok,200,8000,80
2025-06-02,tiktok,200,8000,80
2025-06-03,tiktok,200,8000,80
2025-06-04,tiktok,200,8000,80
2025-06-05,tiktok,200,8000,80
2025-06-06,tiktok,400,16000,160
2025-06-06,snapchat,100,1000,10
`)
	write("Business.csv", `date,revenue
2025-06-01,150
2025-06-02,150
2025-06-03,150
2025-06-04,150
2025-06-05,150
2025-06-06,100
2025-06-07,-50
`)
	return dir
}

func dashboardConfig(dir string) config.Config {
	return config.Config{
		DataDir:             dir,
		FacebookFile:        "Facebook.csv",
		GoogleFile:          "Google.csv",
		TikTokFile:          "TikTok.csv",
		BusinessFile:        "Business.csv",
		DefaultGrouping:     "day",
		CacheEnabled:        true,
		CacheTTL:            time.Minute,
		AlertSpendRisePct:   20,
		AlertRevenueDropPct: 10,
		AlertCPCRisePct:     15,
		AlertROASFloor:      1.0,
		AlertROASPeriods:    3,
		BenchmarkROAS:       3.0,
		BenchmarkCTR:        0.02,
		BenchmarkCPC:        2.0,
	}
}

// startDashboard wires the full server the way cmd/marketpulse does and
// serves it over a real listener.
func startDashboard(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewNoOpRegistry()
	srv := api.NewServer(logger, dashboardConfig(dir), loader.NewLoader(logger, metrics), cache.NewMemory(), metrics)

	r := mux.NewRouter()
	r.Use(middleware.WithRenderContext(logger))
	srv.RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type metricsPayload struct {
	RenderID    string                `json:"render_id"`
	Fingerprint string                `json:"fingerprint"`
	Grouping    string                `json:"grouping"`
	Rows        []models.MetricRow    `json:"rows"`
	Diagnostics []models.Diagnostic   `json:"diagnostics"`
	Sources     []models.SourceReport `json:"sources"`
}

type alertsPayload struct {
	Alerts []models.Alert `json:"alerts"`
}

type summaryPayload struct {
	Summary   reporting.BusinessSummary `json:"summary"`
	Channels  []models.MetricRow        `json:"channels"`
	Scorecard []insights.ChannelScore   `json:"scorecard"`
}

type insightsPayload struct {
	Recommendations []insights.Recommendation `json:"recommendations"`
	Executive       insights.ExecutiveSummary `json:"executive_summary"`
}

type comparePayload struct {
	Periods int                    `json:"periods"`
	Rows    []models.ComparisonRow `json:"rows"`
}

func TestLoaderScreensDirtyRows(t *testing.T) {
	dir := writeFixtures(t)
	logger := zap.NewNop()
	metrics := observability.NewNoOpRegistry()
	ld := loader.NewLoader(logger, metrics)

	cfg := dashboardConfig(dir)
	ds, err := ld.Load(context.Background(), []loader.Source{
		{Name: "facebook", Path: cfg.SourcePath(cfg.FacebookFile), Kind: loader.KindChannel},
		{Name: "google", Path: cfg.SourcePath(cfg.GoogleFile), Kind: loader.KindChannel},
		{Name: "tiktok", Path: cfg.SourcePath(cfg.TikTokFile), Kind: loader.KindChannel},
		{Name: "business", Path: cfg.SourcePath(cfg.BusinessFile), Kind: loader.KindRevenue},
	})
	require.NoError(t, err)

	assert.Len(t, ds.Records, 18)
	assert.Len(t, ds.Revenue, 6)

	codes := make(map[string]int)
	for _, d := range ds.Diagnostics {
		codes[d.Code]++
	}
	assert.Equal(t, map[string]int{
		models.DiagClicksExceedImpressions: 1,
		models.DiagBadDate:                 1,
		models.DiagUnknownChannel:          1,
		models.DiagNegativeValue:           1,
	}, codes)

	for _, src := range ds.Sources {
		assert.Empty(t, src.Error, "source %s", src.Source)
		assert.Equal(t, 6, src.RowsLoaded, "source %s", src.Source)
		assert.Equal(t, 1, src.RowsDropped, "source %s", src.Source)
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	ts := startDashboard(t, writeFixtures(t))

	t.Run("metrics by day", func(t *testing.T) {
		var got metricsPayload
		getJSON(t, ts, "/api/metrics?grouping=day", &got)

		assert.NotEmpty(t, got.RenderID)
		assert.Len(t, got.Fingerprint, 64)
		require.Len(t, got.Rows, 6)
		assert.InDelta(t, 400, got.Rows[0].Spend, 1e-9)
		assert.InDelta(t, 600, got.Rows[5].Spend, 1e-9)
		assert.InDelta(t, 100, got.Rows[5].Revenue, 1e-9)
		assert.Len(t, got.Diagnostics, 4)
	})

	t.Run("metrics by channel and day", func(t *testing.T) {
		var got metricsPayload
		getJSON(t, ts, "/api/metrics?grouping=channel_day", &got)
		assert.Len(t, got.Rows, 18)
	})

	t.Run("fingerprint is stable across renders", func(t *testing.T) {
		var first, second metricsPayload
		getJSON(t, ts, "/api/metrics?grouping=day", &first)
		getJSON(t, ts, "/api/metrics?grouping=day", &second)
		assert.Equal(t, first.Fingerprint, second.Fingerprint)
		assert.NotEqual(t, first.RenderID, second.RenderID)
	})

	t.Run("per-channel alerts", func(t *testing.T) {
		var got alertsPayload
		getJSON(t, ts, "/api/alerts?grouping=channel_day", &got)

		require.Len(t, got.Alerts, 3)

		assert.Equal(t, "efficiency_decline", got.Alerts[0].Rule)
		assert.Equal(t, models.SeverityCritical, got.Alerts[0].Severity)
		assert.Equal(t, models.ChannelTikTok, got.Alerts[0].Channel)
		assert.Equal(t, "2025-06-06", got.Alerts[0].PeriodLabel)

		assert.Equal(t, "sustained_underperformance", got.Alerts[1].Rule)
		assert.Equal(t, models.ChannelTikTok, got.Alerts[1].Channel)
		assert.Equal(t, "2025-06-03", got.Alerts[1].PeriodLabel)

		assert.Equal(t, "cost_inflation", got.Alerts[2].Rule)
		assert.Equal(t, models.ChannelGoogle, got.Alerts[2].Channel)
		assert.Equal(t, "2025-06-04", got.Alerts[2].PeriodLabel)
	})

	t.Run("pooled alerts", func(t *testing.T) {
		var got alertsPayload
		getJSON(t, ts, "/api/alerts?grouping=day", &got)

		// Google's click drop also inflates the pooled CPC on June 4, so the
		// cost rule fires twice here.
		require.Len(t, got.Alerts, 4)
		assert.Equal(t, "efficiency_decline", got.Alerts[0].Rule)
		assert.Equal(t, models.SeverityCritical, got.Alerts[0].Severity)
		assert.Equal(t, models.ChannelAll, got.Alerts[0].Channel)
		assert.Equal(t, "2025-06-06", got.Alerts[0].PeriodLabel)
		assert.Equal(t, "sustained_underperformance", got.Alerts[1].Rule)
		assert.Equal(t, "cost_inflation", got.Alerts[2].Rule)
		assert.Equal(t, "2025-06-04", got.Alerts[2].PeriodLabel)
		assert.Equal(t, "cost_inflation", got.Alerts[3].Rule)
		assert.Equal(t, "2025-06-06", got.Alerts[3].PeriodLabel)
	})

	t.Run("summary", func(t *testing.T) {
		var got summaryPayload
		getJSON(t, ts, "/api/summary", &got)

		assert.Equal(t, 6, got.Summary.Days)
		assert.InDelta(t, 2600, got.Summary.TotalSpend, 1e-9)
		assert.InDelta(t, 850, got.Summary.BusinessRevenue, 1e-9)
		assert.InDelta(t, 1800, got.Summary.AttrRevenue, 1e-9)
		assert.Len(t, got.Channels, 3)
		assert.Len(t, got.Scorecard, 3)
	})

	t.Run("insights", func(t *testing.T) {
		var got insightsPayload
		getJSON(t, ts, "/api/insights", &got)

		templates := make(map[string]insights.Recommendation)
		for _, rec := range got.Recommendations {
			templates[rec.Template] = rec
		}

		top, ok := templates[insights.TemplateTopPerformer]
		require.True(t, ok)
		assert.Equal(t, "facebook", top.Params["channel"])

		under, ok := templates[insights.TemplateUnderperforming]
		require.True(t, ok)
		assert.Equal(t, "google, tiktok", under.Params["channels"])

		realloc, ok := templates[insights.TemplateBudgetReallocation]
		require.True(t, ok)
		assert.Equal(t, "tiktok", realloc.Params["from_channel"])
		assert.Equal(t, "facebook", realloc.Params["to_channel"])

		followup, ok := templates[insights.TemplateAlertFollowup]
		require.True(t, ok, "the critical day-level alert should surface")
		assert.Equal(t, "1", followup.Params["count"])

		assert.Equal(t, "needs_improvement", got.Executive.Status)
		assert.Equal(t, models.ChannelFacebook, got.Executive.TopChannel)
	})

	t.Run("compare trailing windows", func(t *testing.T) {
		var got comparePayload
		getJSON(t, ts, "/api/compare?grouping=channel_day&periods=2", &got)

		assert.Equal(t, 2, got.Periods)
		assert.Len(t, got.Rows, 6)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
