package insights

import (
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// Performance status buckets for the executive summary.
const (
	StatusExcellent        = "excellent"
	StatusGood             = "good"
	StatusNeedsImprovement = "needs_improvement"
)

// ExecutiveSummary condenses a render pass into the handful of numbers and
// actions an executive page leads with.
type ExecutiveSummary struct {
	Status          string           `json:"status"`
	OverallROAS     models.Ratio     `json:"overall_roas"`
	AttributionRate models.Ratio     `json:"attribution_rate"`
	TotalSpend      float64          `json:"total_spend"`
	BusinessRevenue float64          `json:"business_revenue"`
	TopChannel      models.Channel   `json:"top_channel,omitempty"`
	TopActions      []Recommendation `json:"top_actions"`
}

// BuildExecutiveSummary derives the status from overall ROAS and keeps the
// three highest-priority recommendations as next actions.
func BuildExecutiveSummary(summary reporting.BusinessSummary, channelRows []models.MetricRow, recs []Recommendation) ExecutiveSummary {
	es := ExecutiveSummary{
		Status:          StatusNeedsImprovement,
		OverallROAS:     summary.OverallROAS,
		AttributionRate: summary.AttributionRate,
		TotalSpend:      summary.TotalSpend,
		BusinessRevenue: summary.BusinessRevenue,
		TopActions:      []Recommendation{},
	}

	if summary.OverallROAS.Defined() {
		switch roas := float64(summary.OverallROAS); {
		case roas > 4.0:
			es.Status = StatusExcellent
		case roas > 2.5:
			es.Status = StatusGood
		}
	}

	if ranked := rankChannels(channelRows, hasAttribution(channelRows)); len(ranked) > 0 {
		es.TopChannel = ranked[0].Channel
	}

	for _, r := range recs {
		if r.Priority != PriorityHigh {
			continue
		}
		es.TopActions = append(es.TopActions, r)
		if len(es.TopActions) == 3 {
			break
		}
	}
	return es
}
