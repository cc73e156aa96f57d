package models

// Diagnostic codes emitted by the loader and the metrics engine.
const (
	DiagMalformedRow            = "malformed_row"
	DiagBadDate                 = "bad_date"
	DiagBadNumber               = "bad_number"
	DiagNegativeValue           = "negative_value"
	DiagClicksExceedImpressions = "clicks_exceed_impressions"
	DiagUnknownChannel          = "unknown_channel"
	DiagMissingRevenue          = "missing_revenue"
	DiagDuplicateRevenueDate    = "duplicate_revenue_date"
)

// Diagnostic is a non-fatal data-quality finding. Diagnostics ride alongside
// results; they never abort a load or an aggregation.
type Diagnostic struct {
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
