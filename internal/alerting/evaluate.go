package alerting

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
)

// Evaluator runs the rule set over metric rows.
type Evaluator struct {
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

func NewEvaluator(logger *zap.Logger, metrics observability.MetricsRegistry) *Evaluator {
	return &Evaluator{logger: logger, metrics: metrics}
}

// Evaluate applies every rule to the rows and returns the flagged anomalies.
// Rows are split into per-channel series, preserving their period order, and
// each series is judged independently. The result is sorted by severity, then
// period, then rule name, then channel, so equal-severity alerts render in a
// stable order.
func (e *Evaluator) Evaluate(rows []models.MetricRow, rules Rules) []models.Alert {
	var alerts []models.Alert
	for _, series := range splitByChannel(rows) {
		alerts = append(alerts, evaluatePairs(series, rules)...)
		alerts = append(alerts, evaluateROASRuns(series, rules)...)
	}

	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if !a.Period.Equal(b.Period) {
			return a.Period.Before(b.Period)
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Channel < b.Channel
	})

	for _, a := range alerts {
		e.metrics.IncrementAlerts(a.Rule, string(a.Severity))
	}
	if len(alerts) > 0 {
		e.logger.Debug("alert rules fired",
			zap.Int("alerts", len(alerts)),
			zap.Int("rows", len(rows)))
	}
	return alerts
}

// splitByChannel partitions rows into one series per channel, keeping the
// incoming period order within each series.
func splitByChannel(rows []models.MetricRow) [][]models.MetricRow {
	byChannel := make(map[models.Channel][]models.MetricRow)
	var order []models.Channel
	for _, row := range rows {
		if _, ok := byChannel[row.Channel]; !ok {
			order = append(order, row.Channel)
		}
		byChannel[row.Channel] = append(byChannel[row.Channel], row)
	}

	out := make([][]models.MetricRow, 0, len(order))
	for _, ch := range order {
		out = append(out, byChannel[ch])
	}
	return out
}

// evaluatePairs runs the period-over-period rules across consecutive rows of
// one channel series. The first row has nothing to compare against, so no
// rule can fire for it.
func evaluatePairs(series []models.MetricRow, rules Rules) []models.Alert {
	var alerts []models.Alert
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if a, ok := efficiencyDecline(prev, cur, rules); ok {
			alerts = append(alerts, a)
		}
		if a, ok := costInflation(prev, cur, rules); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// efficiencyDecline fires when spend rose at least SpendRisePct while revenue
// fell at least RevenueDropPct. A zero base on either side means the
// percentage movement is unknowable, so the rule is suppressed.
func efficiencyDecline(prev, cur models.MetricRow, rules Rules) (models.Alert, bool) {
	spendRise, ok := pctChange(cur.Spend, prev.Spend)
	if !ok {
		return models.Alert{}, false
	}
	revenueChange, ok := pctChange(cur.Revenue, prev.Revenue)
	if !ok {
		return models.Alert{}, false
	}
	revenueDrop := -revenueChange

	if spendRise < rules.SpendRisePct || revenueDrop < rules.RevenueDropPct {
		return models.Alert{}, false
	}
	return models.Alert{
		Period:      cur.Period,
		PeriodLabel: cur.PeriodLabel,
		Channel:     cur.Channel,
		Rule:        RuleEfficiencyDecline,
		Severity:    models.SeverityCritical,
		Message: fmt.Sprintf("%s spend up %.1f%% while revenue down %.1f%% vs %s",
			cur.Channel.Title(), spendRise, revenueDrop, prev.PeriodLabel),
	}, true
}

// costInflation fires when CPC rose at least CPCRisePct while CTR stayed flat
// or declined. Undefined ratios on either side suppress the rule.
func costInflation(prev, cur models.MetricRow, rules Rules) (models.Alert, bool) {
	if !prev.CPC.Defined() || !cur.CPC.Defined() || !prev.CTR.Defined() || !cur.CTR.Defined() {
		return models.Alert{}, false
	}
	cpcRise, ok := pctChange(float64(cur.CPC), float64(prev.CPC))
	if !ok {
		return models.Alert{}, false
	}
	if cpcRise < rules.CPCRisePct || cur.CTR > prev.CTR {
		return models.Alert{}, false
	}
	return models.Alert{
		Period:      cur.Period,
		PeriodLabel: cur.PeriodLabel,
		Channel:     cur.Channel,
		Rule:        RuleCostInflation,
		Severity:    models.SeverityWarning,
		Message: fmt.Sprintf("%s CPC up %.1f%% with CTR flat or declining vs %s",
			cur.Channel.Title(), cpcRise, prev.PeriodLabel),
	}, true
}

// evaluateROASRuns fires one alert per maximal run of consecutive periods
// with ROAS below the floor, anchored at the period where the run first
// reaches the configured length. An undefined ROAS breaks the run.
func evaluateROASRuns(series []models.MetricRow, rules Rules) []models.Alert {
	if rules.ROASPeriods < 1 {
		return nil
	}

	var alerts []models.Alert
	run := 0
	for _, row := range series {
		if !row.ROAS.Defined() || float64(row.ROAS) >= rules.ROASFloor {
			run = 0
			continue
		}
		run++
		if run != rules.ROASPeriods {
			continue
		}
		alerts = append(alerts, models.Alert{
			Period:      row.Period,
			PeriodLabel: row.PeriodLabel,
			Channel:     row.Channel,
			Rule:        RuleSustainedUnderperformance,
			Severity:    models.SeverityWarning,
			Message: fmt.Sprintf("%s ROAS below %.2f for %d consecutive periods",
				row.Channel.Title(), rules.ROASFloor, rules.ROASPeriods),
		})
	}
	return alerts
}

// pctChange reports the percentage movement from prev to cur. A zero base has
// no defined percentage, so ok is false and callers suppress their rule.
func pctChange(cur, prev float64) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return (cur - prev) / math.Abs(prev) * 100, true
}
