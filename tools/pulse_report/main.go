// Pulse Report Tool generates formatted marketing performance reports.
//
// The tool reads the same flat CSV exports the dashboard serves (Facebook,
// Google, TikTok plus the business revenue file), aggregates them under the
// requested grouping and prints a report with the overall summary, channel
// and period breakdowns, threshold alerts and automated recommendations.
//
// Usage:
//
//	go run ./tools/pulse_report -data-dir=./data -grouping=day -periods=7
//
// Configuration:
//
//	-data-dir: Optional. Directory holding the source CSV files (default: DATA_DIR or ./data)
//	-grouping: Optional. Aggregation grouping: day, week, month, channel, channel_day (default: day)
//	-periods:  Optional. Window length for the period-over-period section (default: 1)
//
// Environment Variables:
//
//	DATA_DIR: Source directory (overridden by -data-dir flag)
//	FACEBOOK_FILE, GOOGLE_FILE, TIKTOK_FILE, BUSINESS_FILE: Source file names
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/alerting"
	"github.com/patrickwarner/marketpulse/internal/config"
	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/loader"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

func main() {
	cfg := config.Load()

	var (
		dataDir  = flag.String("data-dir", cfg.DataDir, "Directory holding the source CSV files")
		grouping = flag.String("grouping", "day", "Aggregation grouping: day, week, month, channel, channel_day")
		periods  = flag.Int("periods", 1, "Window length for the period-over-period comparison")
	)
	flag.Parse()
	cfg.DataDir = *dataDir

	g, err := reporting.ParseGrouping(*grouping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if *periods < 1 {
		fmt.Fprintf(os.Stderr, "Error: periods must be at least 1\n")
		os.Exit(1)
	}

	logger := zap.NewNop()
	metrics := observability.NewNoOpRegistry()
	ld := loader.NewLoader(logger, metrics)

	sources := []loader.Source{
		{Name: "facebook", Path: cfg.SourcePath(cfg.FacebookFile), Kind: loader.KindChannel},
		{Name: "google", Path: cfg.SourcePath(cfg.GoogleFile), Kind: loader.KindChannel},
		{Name: "tiktok", Path: cfg.SourcePath(cfg.TikTokFile), Kind: loader.KindChannel},
		{Name: "business", Path: cfg.SourcePath(cfg.BusinessFile), Kind: loader.KindRevenue},
	}

	ds, err := ld.Load(context.Background(), sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sources: %v\n", err)
		os.Exit(1)
	}
	for _, src := range ds.Sources {
		if src.Error != "" {
			fmt.Fprintf(os.Stderr, "Warning: source %s: %s\n", src.Source, src.Error)
		}
	}

	rows, _ := reporting.Aggregate(ds, g)
	channels, _ := reporting.Aggregate(ds, reporting.GroupByChannel)
	summary := reporting.Summarize(ds)

	evaluator := alerting.NewEvaluator(logger, metrics)
	alerts := evaluator.Evaluate(rows, alerting.DefaultRules())
	recs := insights.Recommendations(channels, summary, alerts)

	current, previous := reporting.LastWindows(rows, *periods)
	comparison := reporting.Compare(current, previous)

	printReport(cfg.DataDir, string(g), summary, channels, rows, comparison, alerts, recs)
}

func printReport(dataDir, grouping string, summary reporting.BusinessSummary, channels, rows []models.MetricRow, comparison []models.ComparisonRow, alerts []models.Alert, recs []insights.Recommendation) {
	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
	fmt.Printf("                            MARKETING PERFORMANCE REPORT                           \n")
	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
	fmt.Printf("Data Directory: %s\n", dataDir)
	if summary.Days > 0 {
		fmt.Printf("Window: %s to %s (%d days)\n", summary.From, summary.To, summary.Days)
	}
	fmt.Printf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	// Overall Performance
	fmt.Printf("📊 OVERALL PERFORMANCE\n")
	fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
	fmt.Printf("Total Spend:         $%.2f\n", summary.TotalSpend)
	fmt.Printf("Business Revenue:    $%.2f\n", summary.BusinessRevenue)
	if summary.AttrRevenue > 0 {
		fmt.Printf("Attributed Revenue:  $%.2f\n", summary.AttrRevenue)
		fmt.Printf("Attribution Rate:    %s%%\n", fmtRatio(summary.AttributionRate, "%.1f"))
	}
	fmt.Printf("Overall ROAS:        %s\n", fmtRatio(summary.OverallROAS, "%.2f"))
	fmt.Printf("Total Impressions:   %s\n", formatNumber(summary.TotalImpressions))
	fmt.Printf("Total Clicks:        %s\n", formatNumber(summary.TotalClicks))
	fmt.Printf("Avg Daily Spend:     %s\n", fmtMoney(summary.AvgDailySpend))
	fmt.Printf("\n")

	// Channel Breakdown
	if len(channels) > 0 {
		fmt.Printf("🏆 CHANNEL PERFORMANCE\n")
		fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
		fmt.Printf("Channel    |      Spend |    Revenue | Impressions | Clicks |   CTR   |   CPC   |  ROAS  \n")
		fmt.Printf("-----------|------------|------------|-------------|--------|---------|---------|--------\n")
		for _, row := range channels {
			fmt.Printf("%-10s | $%9.2f | $%9.2f | %11s | %6s | %6s%% | $%6s | %6s\n",
				row.Channel.Title(),
				row.Spend,
				row.Revenue,
				formatNumber(row.Impressions),
				formatNumber(row.Clicks),
				fmtRatioScaled(row.CTR, 100, "%.2f"),
				fmtRatio(row.CPC, "%.2f"),
				fmtRatio(row.ROAS, "%.2f"),
			)
		}
		fmt.Printf("\n")
	}

	// Period Breakdown
	if len(rows) > 0 {
		fmt.Printf("📅 PERIOD BREAKDOWN (%s)\n", grouping)
		fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
		fmt.Printf("Period                 | Channel    |      Spend |    Revenue |   CTR   |  ROAS  \n")
		fmt.Printf("-----------------------|------------|------------|------------|---------|--------\n")
		for _, row := range rows {
			fmt.Printf("%-22s | %-10s | $%9.2f | $%9.2f | %6s%% | %6s\n",
				row.PeriodLabel,
				row.Channel.Title(),
				row.Spend,
				row.Revenue,
				fmtRatioScaled(row.CTR, 100, "%.2f"),
				fmtRatio(row.ROAS, "%.2f"),
			)
		}
		fmt.Printf("\n")
	}

	// Period-over-period movement
	if len(comparison) > 0 {
		fmt.Printf("🔄 PERIOD-OVER-PERIOD\n")
		fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
		fmt.Printf("Period                 | Channel    |  Spend Δ  | Revenue Δ |  ROAS Δ  \n")
		fmt.Printf("-----------------------|------------|-----------|-----------|----------\n")
		for _, row := range comparison {
			fmt.Printf("%-22s | %-10s | %9s | %9s | %8s\n",
				row.PeriodLabel,
				row.Channel.Title(),
				fmtDelta(row.Deltas.Spend),
				fmtDelta(row.Deltas.Revenue),
				fmtDelta(row.Deltas.ROAS),
			)
		}
		fmt.Printf("\n")
	}

	// Alerts
	fmt.Printf("🚨 ALERTS\n")
	fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
	if len(alerts) == 0 {
		fmt.Printf("No alert rules fired for this window.\n")
	}
	for _, a := range alerts {
		fmt.Printf("%s [%s] %s - %s\n", severityIcon(a.Severity), a.PeriodLabel, a.Rule, a.Message)
	}
	fmt.Printf("\n")

	// Insights
	fmt.Printf("💡 INSIGHTS & RECOMMENDATIONS\n")
	fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
	if len(recs) == 0 {
		fmt.Printf("No recommendations for this window.\n")
	}
	for _, rec := range recs {
		fmt.Printf("%s\n", renderRecommendation(rec))
	}

	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
}

// renderRecommendation turns a recommendation's template and parameters into
// a readable line. Rendering lives with the presentation layer; the insights
// package only emits template IDs and values.
func renderRecommendation(rec insights.Recommendation) string {
	p := rec.Params
	switch rec.Template {
	case insights.TemplateTopPerformer:
		return fmt.Sprintf("✅ %s delivers the best ROAS (%s); +20%% budget projects a $%s gain",
			p["channel"], p["roas"], p["projected_gain"])
	case insights.TemplateUnderperforming:
		return fmt.Sprintf("⚠️  Channels below ROAS %s: %s (potential savings $%s)",
			p["threshold"], p["channels"], p["potential_savings"])
	case insights.TemplateConversionOpt:
		return fmt.Sprintf("🔍 %s engages well (CTR %s%%) but trails on return; review conversion flow",
			p["channel"], p["ctr_pct"])
	case insights.TemplateAttributionGap:
		return fmt.Sprintf("📉 Channels claim only %s%% of business revenue; check attribution coverage",
			p["rate_pct"])
	case insights.TemplateBudgetConcentration:
		return fmt.Sprintf("⚠️  %s holds %s%% of total spend; concentration is a single-channel risk",
			p["channel"], p["share_pct"])
	case insights.TemplateBudgetReallocation:
		return fmt.Sprintf("📈 Shift $%s from %s to %s for an estimated $%s net gain",
			p["amount"], p["from_channel"], p["to_channel"], p["net_gain"])
	case insights.TemplateAlertFollowup:
		return fmt.Sprintf("🚨 %s critical alert(s) on: %s", p["count"], p["channels"])
	}
	return fmt.Sprintf("• %s %v", rec.Template, rec.Params)
}

func severityIcon(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "🚨"
	case models.SeverityWarning:
		return "⚠️ "
	}
	return "ℹ️ "
}

// fmtRatio formats a ratio with the given verb, or "n/a" when undefined.
func fmtRatio(r models.Ratio, verb string) string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf(verb, float64(r))
}

func fmtRatioScaled(r models.Ratio, scale float64, verb string) string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf(verb, float64(r)*scale)
}

func fmtMoney(r models.Ratio) string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", float64(r))
}

func fmtDelta(d models.Delta) string {
	if !d.Pct.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", float64(d.Pct))
}

// formatNumber formats large integers with comma separators for improved readability.
// Example: 1234567 becomes "1,234,567"
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}
	return result
}
