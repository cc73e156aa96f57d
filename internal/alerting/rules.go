// Package alerting applies threshold rules to metric rows and emits flagged
// anomalies. Every rule is independently evaluable over an ordered window of
// rows for one channel; missing comparison data suppresses a rule for that
// period instead of erroring.
package alerting

// Rule names, stable identifiers carried on every alert.
const (
	RuleEfficiencyDecline         = "efficiency_decline"
	RuleCostInflation             = "cost_inflation"
	RuleSustainedUnderperformance = "sustained_underperformance"
)

// Rules carries the configurable thresholds for the built-in rule set.
// Percentages are expressed as whole numbers (20 means 20%).
type Rules struct {
	// SpendRisePct and RevenueDropPct together define efficiency decline:
	// spend up at least SpendRisePct while revenue down at least
	// RevenueDropPct, period over period.
	SpendRisePct   float64
	RevenueDropPct float64

	// CPCRisePct defines cost inflation: CPC up at least this much while
	// CTR is flat or declining.
	CPCRisePct float64

	// ROASFloor and ROASPeriods define sustained underperformance: ROAS
	// below the floor for at least ROASPeriods consecutive periods.
	ROASFloor   float64
	ROASPeriods int
}

// DefaultRules returns the stock thresholds used when no configuration
// overrides them.
func DefaultRules() Rules {
	return Rules{
		SpendRisePct:   20,
		RevenueDropPct: 10,
		CPCRisePct:     15,
		ROASFloor:      1.0,
		ROASPeriods:    3,
	}
}
