// Package insights turns channel metric rows, business summaries and alerts
// into structured recommendation records. Each record names the rule that
// produced it, a message template and the parameters the template needs;
// rendering them into prose belongs to the presentation layer.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// Template IDs for the built-in generators.
const (
	TemplateTopPerformer        = "top_performer"
	TemplateUnderperforming     = "underperforming_channels"
	TemplateConversionOpt       = "conversion_optimization"
	TemplateAttributionGap      = "attribution_gap"
	TemplateBudgetConcentration = "budget_concentration"
	TemplateBudgetReallocation  = "budget_reallocation"
	TemplateAlertFollowup       = "alert_followup"
)

const (
	// lowROASThreshold marks a channel as underperforming.
	lowROASThreshold = 2.0
	// attributionGapPct is the attribution rate below which tracking looks
	// incomplete.
	attributionGapPct = 15.0
	// concentrationShare is the single-channel spend share considered a
	// portfolio risk.
	concentrationShare = 0.6
	// reallocationShare is how much of the worst channel's budget a
	// reallocation projection moves.
	reallocationShare = 0.2

	maxRecommendations = 5
)

// Priority orders recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Recommendation is one structured insight. ID names the generating rule,
// Template the message template the presentation layer should render, and
// Params the pre-formatted values that template needs.
type Recommendation struct {
	ID       string            `json:"id"`
	Template string            `json:"template"`
	Priority Priority          `json:"priority"`
	Params   map[string]string `json:"params"`
}

// Recommendations runs every generator over the per-channel rows and returns
// at most five records, highest priority first. Ties order by template name,
// then channel, so the list is stable across renders of the same dataset.
func Recommendations(channelRows []models.MetricRow, summary reporting.BusinessSummary, alerts []models.Alert) []Recommendation {
	useAttr := hasAttribution(channelRows)
	ranked := rankChannels(channelRows, useAttr)

	var recs []Recommendation
	if r, ok := topPerformer(ranked, useAttr); ok {
		recs = append(recs, r)
	}
	if r, ok := underperforming(ranked, useAttr); ok {
		recs = append(recs, r)
	}
	if r, ok := conversionOpportunity(ranked, useAttr); ok {
		recs = append(recs, r)
	}
	if r, ok := attributionGap(summary); ok {
		recs = append(recs, r)
	}
	if r, ok := budgetConcentration(ranked); ok {
		recs = append(recs, r)
	}
	if r, ok := budgetReallocation(ranked, useAttr); ok {
		recs = append(recs, r)
	}
	if r, ok := alertFollowup(alerts); ok {
		recs = append(recs, r)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		if a.Template != b.Template {
			return a.Template < b.Template
		}
		return a.Params["channel"] < b.Params["channel"]
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// hasAttribution reports whether any channel claims attributed revenue, which
// switches ranking to attributed ROAS.
func hasAttribution(rows []models.MetricRow) bool {
	for _, row := range rows {
		if row.AttrRevenue > 0 {
			return true
		}
	}
	return false
}

// effectiveROAS picks the ratio channels are ranked by: attributed ROAS when
// the dataset carries attribution, blended business ROAS otherwise.
func effectiveROAS(row models.MetricRow, useAttr bool) models.Ratio {
	if useAttr {
		return row.AttrROAS
	}
	return row.ROAS
}

// rankChannels sorts rows best-first by effective ROAS. Rows whose ratio is
// undefined sink to the end; ties break on channel name.
func rankChannels(rows []models.MetricRow, useAttr bool) []models.MetricRow {
	ranked := make([]models.MetricRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := effectiveROAS(ranked[i], useAttr), effectiveROAS(ranked[j], useAttr)
		switch {
		case a.Defined() && !b.Defined():
			return true
		case !a.Defined() && b.Defined():
			return false
		case a.Defined() && b.Defined() && a != b:
			return a > b
		}
		return ranked[i].Channel < ranked[j].Channel
	})
	return ranked
}

func topPerformer(ranked []models.MetricRow, useAttr bool) (Recommendation, bool) {
	if len(ranked) == 0 {
		return Recommendation{}, false
	}
	best := ranked[0]
	roas := effectiveROAS(best, useAttr)
	if !roas.Defined() {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:       TemplateTopPerformer,
		Template: TemplateTopPerformer,
		Priority: PriorityHigh,
		Params: map[string]string{
			"channel":        string(best.Channel),
			"roas":           fmt.Sprintf("%.2f", float64(roas)),
			"spend":          fmt.Sprintf("%.0f", best.Spend),
			"projected_gain": fmt.Sprintf("%.0f", best.Spend*reallocationShare*float64(roas)),
		},
	}, true
}

func underperforming(ranked []models.MetricRow, useAttr bool) (Recommendation, bool) {
	var channels []string
	var spend float64
	for _, row := range ranked {
		roas := effectiveROAS(row, useAttr)
		if roas.Defined() && float64(roas) < lowROASThreshold {
			channels = append(channels, string(row.Channel))
			spend += row.Spend
		}
	}
	if len(channels) == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:       TemplateUnderperforming,
		Template: TemplateUnderperforming,
		Priority: PriorityHigh,
		Params: map[string]string{
			"channels":          strings.Join(channels, ", "),
			"threshold":         fmt.Sprintf("%.1f", lowROASThreshold),
			"potential_savings": fmt.Sprintf("%.0f", spend*0.15),
		},
	}, true
}

// conversionOpportunity flags the best channel whose engagement beats the
// median while its return trails it: clicks are there, conversions are not.
func conversionOpportunity(ranked []models.MetricRow, useAttr bool) (Recommendation, bool) {
	var ctrs, roases []float64
	for _, row := range ranked {
		if row.CTR.Defined() {
			ctrs = append(ctrs, float64(row.CTR))
		}
		if r := effectiveROAS(row, useAttr); r.Defined() {
			roases = append(roases, float64(r))
		}
	}
	if len(ctrs) < 2 || len(roases) < 2 {
		return Recommendation{}, false
	}
	ctrMedian, roasMedian := median(ctrs), median(roases)

	for _, row := range ranked {
		roas := effectiveROAS(row, useAttr)
		if !row.CTR.Defined() || !roas.Defined() {
			continue
		}
		if float64(row.CTR) > ctrMedian && float64(roas) < roasMedian {
			return Recommendation{
				ID:       TemplateConversionOpt,
				Template: TemplateConversionOpt,
				Priority: PriorityMedium,
				Params: map[string]string{
					"channel": string(row.Channel),
					"ctr_pct": fmt.Sprintf("%.2f", float64(row.CTR)*100),
				},
			}, true
		}
	}
	return Recommendation{}, false
}

// attributionGap fires when the dataset tracks attribution but the channel
// exports claim less than 15% of business revenue.
func attributionGap(summary reporting.BusinessSummary) (Recommendation, bool) {
	if summary.AttrRevenue <= 0 || !summary.AttributionRate.Defined() {
		return Recommendation{}, false
	}
	if float64(summary.AttributionRate) >= attributionGapPct {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:       TemplateAttributionGap,
		Template: TemplateAttributionGap,
		Priority: PriorityMedium,
		Params: map[string]string{
			"rate_pct": fmt.Sprintf("%.1f", float64(summary.AttributionRate)),
		},
	}, true
}

func budgetConcentration(ranked []models.MetricRow) (Recommendation, bool) {
	var total float64
	var top models.MetricRow
	for _, row := range ranked {
		total += row.Spend
		if row.Spend > top.Spend {
			top = row
		}
	}
	if total <= 0 {
		return Recommendation{}, false
	}
	share := top.Spend / total
	if share <= concentrationShare {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:       TemplateBudgetConcentration,
		Template: TemplateBudgetConcentration,
		Priority: PriorityMedium,
		Params: map[string]string{
			"channel":   string(top.Channel),
			"share_pct": fmt.Sprintf("%.0f", share*100),
		},
	}, true
}

// budgetReallocation projects moving a fifth of the worst channel's budget to
// the best one.
func budgetReallocation(ranked []models.MetricRow, useAttr bool) (Recommendation, bool) {
	var defined []models.MetricRow
	for _, row := range ranked {
		if effectiveROAS(row, useAttr).Defined() {
			defined = append(defined, row)
		}
	}
	if len(defined) < 2 {
		return Recommendation{}, false
	}

	best, worst := defined[0], defined[len(defined)-1]
	amount := worst.Spend * reallocationShare
	if amount <= 0 {
		return Recommendation{}, false
	}
	netGain := amount * (float64(effectiveROAS(best, useAttr)) - float64(effectiveROAS(worst, useAttr)))
	if netGain <= 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		ID:       TemplateBudgetReallocation,
		Template: TemplateBudgetReallocation,
		Priority: PriorityMedium,
		Params: map[string]string{
			"from_channel": string(worst.Channel),
			"to_channel":   string(best.Channel),
			"amount":       fmt.Sprintf("%.0f", amount),
			"net_gain":     fmt.Sprintf("%.0f", netGain),
		},
	}, true
}

// alertFollowup surfaces critical alerts inside the recommendation list so
// they are impossible to miss on the insights page.
func alertFollowup(alerts []models.Alert) (Recommendation, bool) {
	channels := make(map[string]bool)
	count := 0
	for _, a := range alerts {
		if a.Severity != models.SeverityCritical {
			continue
		}
		count++
		channels[string(a.Channel)] = true
	}
	if count == 0 {
		return Recommendation{}, false
	}

	names := make([]string, 0, len(channels))
	for ch := range channels {
		names = append(names, ch)
	}
	sort.Strings(names)

	return Recommendation{
		ID:       TemplateAlertFollowup,
		Template: TemplateAlertFollowup,
		Priority: PriorityHigh,
		Params: map[string]string{
			"count":    fmt.Sprintf("%d", count),
			"channels": strings.Join(names, ", "),
		},
	}, true
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
