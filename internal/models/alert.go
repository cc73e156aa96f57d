package models

import "time"

// Severity ranks how urgently an alert needs attention.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting, highest urgency first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// Alert is one triggered threshold rule. Alerts are recomputed from metric
// rows on every evaluation; nothing about them is stored.
type Alert struct {
	Period      time.Time `json:"period"`
	PeriodLabel string    `json:"period_label"`
	Channel     Channel   `json:"channel"`
	Rule        string    `json:"rule"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
}
