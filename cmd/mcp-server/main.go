package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/alerting"
	"github.com/patrickwarner/marketpulse/internal/config"
	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/loader"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// loadTimeout bounds one render pass. The sources are local flat files, so
// anything slower than this means something is wrong with the volume.
const loadTimeout = 10 * time.Second

type GetMetricsInput struct {
	Grouping string `json:"grouping,omitempty"`
}

type GetMetricsOutput struct {
	Grouping    string                `json:"grouping"`
	Rows        []models.MetricRow    `json:"rows"`
	Diagnostics []models.Diagnostic   `json:"diagnostics"`
	Sources     []models.SourceReport `json:"sources"`
}

type GetChannelPerformanceInput struct{}

type GetChannelPerformanceOutput struct {
	Summary  reporting.BusinessSummary `json:"summary"`
	Channels []models.MetricRow        `json:"channels"`
	Scores   []insights.ChannelScore   `json:"scores"`
}

type GetAlertsInput struct {
	Grouping string `json:"grouping,omitempty"`
}

type GetAlertsOutput struct {
	Grouping string         `json:"grouping"`
	Alerts   []models.Alert `json:"alerts"`
}

type GetInsightsInput struct{}

type GetInsightsOutput struct {
	Recommendations []insights.Recommendation `json:"recommendations"`
	Executive       insights.ExecutiveSummary `json:"executive_summary"`
}

// PulseServer holds the dependencies behind the MCP tools. Every tool call
// runs a fresh render pass over the flat files, same as the HTTP API.
type PulseServer struct {
	cfg        config.Config
	loader     *loader.Loader
	evaluator  *alerting.Evaluator
	rules      alerting.Rules
	benchmarks insights.Benchmarks
	logger     *zap.Logger
}

func dashboardSources(cfg config.Config) []loader.Source {
	return []loader.Source{
		{Name: "facebook", Path: cfg.SourcePath(cfg.FacebookFile), Kind: loader.KindChannel},
		{Name: "google", Path: cfg.SourcePath(cfg.GoogleFile), Kind: loader.KindChannel},
		{Name: "tiktok", Path: cfg.SourcePath(cfg.TikTokFile), Kind: loader.KindChannel},
		{Name: "business", Path: cfg.SourcePath(cfg.BusinessFile), Kind: loader.KindRevenue},
	}
}

func (s *PulseServer) load(ctx context.Context) (*models.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	return s.loader.Load(ctx, dashboardSources(s.cfg))
}

func (s *PulseServer) grouping(raw string) (reporting.Grouping, error) {
	if raw == "" {
		raw = s.cfg.DefaultGrouping
	}
	return reporting.ParseGrouping(raw)
}

// GetMetrics implements the get_metrics tool.
func (s *PulseServer) GetMetrics(ctx context.Context, req *mcp.CallToolRequest, input GetMetricsInput) (*mcp.CallToolResult, GetMetricsOutput, error) {
	g, err := s.grouping(input.Grouping)
	if err != nil {
		return nil, GetMetricsOutput{}, err
	}

	ds, err := s.load(ctx)
	if err != nil {
		return nil, GetMetricsOutput{}, fmt.Errorf("failed to load sources: %w", err)
	}

	rows, engineDiags := reporting.Aggregate(ds, g)
	diags := append(append([]models.Diagnostic{}, ds.Diagnostics...), engineDiags...)

	s.logger.Info("metrics rendered",
		zap.String("grouping", string(g)),
		zap.Int("rows", len(rows)),
		zap.Int("diagnostics", len(diags)))

	out := GetMetricsOutput{Grouping: string(g), Rows: rows, Diagnostics: diags, Sources: ds.Sources}
	if out.Rows == nil {
		out.Rows = []models.MetricRow{}
	}
	return nil, out, nil
}

// GetChannelPerformance implements the get_channel_performance tool.
func (s *PulseServer) GetChannelPerformance(ctx context.Context, req *mcp.CallToolRequest, input GetChannelPerformanceInput) (*mcp.CallToolResult, GetChannelPerformanceOutput, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, GetChannelPerformanceOutput{}, fmt.Errorf("failed to load sources: %w", err)
	}

	channels, _ := reporting.Aggregate(ds, reporting.GroupByChannel)
	out := GetChannelPerformanceOutput{
		Summary:  reporting.Summarize(ds),
		Channels: channels,
		Scores:   insights.Scorecard(channels, s.benchmarks),
	}
	if out.Channels == nil {
		out.Channels = []models.MetricRow{}
	}
	if out.Scores == nil {
		out.Scores = []insights.ChannelScore{}
	}
	return nil, out, nil
}

// GetAlerts implements the get_alerts tool.
func (s *PulseServer) GetAlerts(ctx context.Context, req *mcp.CallToolRequest, input GetAlertsInput) (*mcp.CallToolResult, GetAlertsOutput, error) {
	g, err := s.grouping(input.Grouping)
	if err != nil {
		return nil, GetAlertsOutput{}, err
	}

	ds, err := s.load(ctx)
	if err != nil {
		return nil, GetAlertsOutput{}, fmt.Errorf("failed to load sources: %w", err)
	}

	rows, _ := reporting.Aggregate(ds, g)
	alerts := s.evaluator.Evaluate(rows, s.rules)

	out := GetAlertsOutput{Grouping: string(g), Alerts: alerts}
	if out.Alerts == nil {
		out.Alerts = []models.Alert{}
	}
	return nil, out, nil
}

// GetInsights implements the get_insights tool.
func (s *PulseServer) GetInsights(ctx context.Context, req *mcp.CallToolRequest, input GetInsightsInput) (*mcp.CallToolResult, GetInsightsOutput, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, GetInsightsOutput{}, fmt.Errorf("failed to load sources: %w", err)
	}

	channels, _ := reporting.Aggregate(ds, reporting.GroupByChannel)

	// Alert followups need a time series, not the per-channel totals.
	seriesGrouping, err := s.grouping("")
	if err != nil {
		seriesGrouping = reporting.GroupByDay
	}
	series, _ := reporting.Aggregate(ds, seriesGrouping)
	alerts := s.evaluator.Evaluate(series, s.rules)

	summary := reporting.Summarize(ds)
	recs := insights.Recommendations(channels, summary, alerts)

	out := GetInsightsOutput{
		Recommendations: recs,
		Executive:       insights.BuildExecutiveSummary(summary, channels, recs),
	}
	if out.Recommendations == nil {
		out.Recommendations = []insights.Recommendation{}
	}
	return nil, out, nil
}

func main() {
	// Use stderr for all log output to avoid corrupting the stdio transport.
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger = logger.Named("marketpulse-mcp").With(zap.String("service", "marketpulse-mcp"))

	cfg := config.Load()
	logger.Info("Starting MarketPulse MCP server", zap.String("data_dir", cfg.DataDir))

	pulse := &PulseServer{
		cfg:        cfg,
		loader:     loader.NewLoader(logger, observability.NewNoOpRegistry()),
		evaluator:  alerting.NewEvaluator(logger, observability.NewNoOpRegistry()),
		rules:      alerting.DefaultRules(),
		benchmarks: insights.DefaultBenchmarks(),
		logger:     logger,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "marketpulse",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_metrics",
		Description: "Aggregated marketing metrics (spend, impressions, clicks, CTR, CPC, CPM, ROAS) for a grouping",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"grouping": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"day", "week", "month", "channel", "channel_day"},
					"description": "Aggregation grouping (optional, defaults to the configured grouping)",
				},
			},
		},
	}, pulse.GetMetrics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_channel_performance",
		Description: "Per-channel totals for the full data window, with the business summary and benchmark scorecard",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, pulse.GetChannelPerformance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_alerts",
		Description: "Threshold alerts (efficiency decline, cost inflation, sustained underperformance) over the metric series",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"grouping": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"day", "week", "month", "channel", "channel_day"},
					"description": "Series grouping to evaluate rules over (optional)",
				},
			},
		},
	}, pulse.GetAlerts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_insights",
		Description: "Prioritized recommendations and the executive summary derived from the current data window",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, pulse.GetInsights)

	// The protocol exchange is buffered so a fatal error can surface it.
	var protocolLog bytes.Buffer
	transport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &protocolLog,
	}

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), transport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", protocolLog.String()))
	}
}
