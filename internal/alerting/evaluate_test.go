package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(zap.NewNop(), observability.NewNoOpRegistry())
}

func dayRow(t *testing.T, date string, ch models.Channel, spend, revenue float64) models.MetricRow {
	t.Helper()
	d, err := time.ParseInLocation(models.DayKeyFormat, date, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return models.MetricRow{
		Period:      d,
		PeriodLabel: date,
		Channel:     ch,
		Spend:       spend,
		Revenue:     revenue,
		CTR:         models.UndefinedRatio(),
		CPC:         models.UndefinedRatio(),
		CPM:         models.UndefinedRatio(),
		ROAS:        models.SafeRatio(revenue, spend),
		AttrROAS:    models.UndefinedRatio(),
	}
}

func roasRow(t *testing.T, date string, ch models.Channel, roas models.Ratio) models.MetricRow {
	t.Helper()
	row := dayRow(t, date, ch, 0, 0)
	row.ROAS = roas
	return row
}

func TestEfficiencyDeclineFiresOnceForLaterPeriod(t *testing.T) {
	rows := []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelAll, 100, 1000),
		dayRow(t, "2025-06-02", models.ChannelAll, 150, 800), // spend +50%, revenue -20%
	}

	alerts := newTestEvaluator().Evaluate(rows, DefaultRules())
	assert.Len(t, alerts, 1)
	assert.Equal(t, RuleEfficiencyDecline, alerts[0].Rule)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "2025-06-02", alerts[0].PeriodLabel)
	assert.Equal(t, models.ChannelAll, alerts[0].Channel)
	assert.Contains(t, alerts[0].Message, "spend up 50.0%")
	assert.Contains(t, alerts[0].Message, "revenue down 20.0%")
}

func TestEfficiencyDeclineBelowThresholds(t *testing.T) {
	rules := DefaultRules()

	// Spend movement under the threshold.
	rows := []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelAll, 100, 1000),
		dayRow(t, "2025-06-02", models.ChannelAll, 110, 800),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, rules))

	// Revenue movement under the threshold.
	rows = []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelAll, 100, 1000),
		dayRow(t, "2025-06-02", models.ChannelAll, 150, 950),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, rules))
}

func TestEfficiencyDeclineZeroBaseSuppressed(t *testing.T) {
	rows := []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelAll, 0, 1000),
		dayRow(t, "2025-06-02", models.ChannelAll, 150, 500),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))

	rows = []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelAll, 100, 0),
		dayRow(t, "2025-06-02", models.ChannelAll, 150, 0),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))
}

func costRow(t *testing.T, date string, cpc, ctr models.Ratio) models.MetricRow {
	t.Helper()
	row := dayRow(t, date, models.ChannelGoogle, 100, 1000)
	row.CPC = cpc
	row.CTR = ctr
	return row
}

func TestCostInflation(t *testing.T) {
	rows := []models.MetricRow{
		costRow(t, "2025-06-01", models.Ratio(1.0), models.Ratio(0.02)),
		costRow(t, "2025-06-02", models.Ratio(1.2), models.Ratio(0.02)), // CPC +20%, CTR flat
	}

	alerts := newTestEvaluator().Evaluate(rows, DefaultRules())
	assert.Len(t, alerts, 1)
	assert.Equal(t, RuleCostInflation, alerts[0].Rule)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "2025-06-02", alerts[0].PeriodLabel)
}

func TestCostInflationImprovingCTRSuppressed(t *testing.T) {
	rows := []models.MetricRow{
		costRow(t, "2025-06-01", models.Ratio(1.0), models.Ratio(0.02)),
		costRow(t, "2025-06-02", models.Ratio(1.2), models.Ratio(0.03)),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))
}

func TestCostInflationUndefinedRatiosSuppressed(t *testing.T) {
	rows := []models.MetricRow{
		costRow(t, "2025-06-01", models.Ratio(1.0), models.UndefinedRatio()),
		costRow(t, "2025-06-02", models.Ratio(1.2), models.Ratio(0.02)),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))

	rows = []models.MetricRow{
		costRow(t, "2025-06-01", models.UndefinedRatio(), models.Ratio(0.02)),
		costRow(t, "2025-06-02", models.Ratio(1.2), models.Ratio(0.02)),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))
}

func TestSustainedUnderperformanceOnePerRun(t *testing.T) {
	rows := []models.MetricRow{
		roasRow(t, "2025-06-01", models.ChannelTikTok, models.Ratio(0.5)),
		roasRow(t, "2025-06-02", models.ChannelTikTok, models.Ratio(0.4)),
		roasRow(t, "2025-06-03", models.ChannelTikTok, models.Ratio(0.6)),
		roasRow(t, "2025-06-04", models.ChannelTikTok, models.Ratio(0.3)), // run continues, no second alert
		roasRow(t, "2025-06-05", models.ChannelTikTok, models.Ratio(2.0)), // run broken
		roasRow(t, "2025-06-06", models.ChannelTikTok, models.Ratio(0.5)),
		roasRow(t, "2025-06-07", models.ChannelTikTok, models.Ratio(0.5)),
		roasRow(t, "2025-06-08", models.ChannelTikTok, models.Ratio(0.5)),
	}

	alerts := newTestEvaluator().Evaluate(rows, DefaultRules())
	assert.Len(t, alerts, 2)
	assert.Equal(t, "2025-06-03", alerts[0].PeriodLabel)
	assert.Equal(t, "2025-06-08", alerts[1].PeriodLabel)
	for _, a := range alerts {
		assert.Equal(t, RuleSustainedUnderperformance, a.Rule)
		assert.Equal(t, models.SeverityWarning, a.Severity)
	}
}

func TestSustainedUnderperformanceUndefinedBreaksRun(t *testing.T) {
	rows := []models.MetricRow{
		roasRow(t, "2025-06-01", models.ChannelTikTok, models.Ratio(0.5)),
		roasRow(t, "2025-06-02", models.ChannelTikTok, models.UndefinedRatio()),
		roasRow(t, "2025-06-03", models.ChannelTikTok, models.Ratio(0.5)),
		roasRow(t, "2025-06-04", models.ChannelTikTok, models.Ratio(0.5)),
	}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))
}

func TestEvaluateChannelsIndependently(t *testing.T) {
	// Interleaved rows, the way a channel-day grouping arrives.
	rows := []models.MetricRow{
		dayRow(t, "2025-06-01", models.ChannelFacebook, 100, 1000),
		dayRow(t, "2025-06-01", models.ChannelGoogle, 100, 1000),
		dayRow(t, "2025-06-02", models.ChannelFacebook, 180, 700),
		dayRow(t, "2025-06-02", models.ChannelGoogle, 100, 1000),
	}

	alerts := newTestEvaluator().Evaluate(rows, DefaultRules())
	assert.Len(t, alerts, 1)
	assert.Equal(t, models.ChannelFacebook, alerts[0].Channel)
	assert.Equal(t, RuleEfficiencyDecline, alerts[0].Rule)
}

func TestEvaluateSortsBySeverityThenPeriodThenRule(t *testing.T) {
	rows := []models.MetricRow{
		// Google inflates CPC on 06-02 (warning).
		costRow(t, "2025-06-01", models.Ratio(1.0), models.Ratio(0.02)),
		costRow(t, "2025-06-02", models.Ratio(1.5), models.Ratio(0.02)),
		// Facebook declines on 06-03 (critical, later date).
		dayRow(t, "2025-06-02", models.ChannelFacebook, 100, 1000),
		dayRow(t, "2025-06-03", models.ChannelFacebook, 200, 500),
	}

	alerts := newTestEvaluator().Evaluate(rows, DefaultRules())
	assert.Len(t, alerts, 2)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "2025-06-03", alerts[0].PeriodLabel)
	assert.Equal(t, models.SeverityWarning, alerts[1].Severity)
}

func TestEvaluateSingleRowNoAlerts(t *testing.T) {
	rows := []models.MetricRow{dayRow(t, "2025-06-01", models.ChannelAll, 150, 100)}
	assert.Empty(t, newTestEvaluator().Evaluate(rows, DefaultRules()))
}
