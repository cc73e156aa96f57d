package models

import "time"

// DayKeyFormat is the canonical date layout for all CSV input and all
// date-keyed maps. Inputs that do not parse with it are dropped during load.
const DayKeyFormat = "2006-01-02"

// DayKey renders a timestamp as the canonical date key.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// ChannelRecord is one normalized row of channel marketing data.
// Invariant: Clicks <= Impressions and no field is negative; rows violating
// either are excluded at load time with a diagnostic, never clamped.
type ChannelRecord struct {
	Date        time.Time `json:"date"`
	Channel     Channel   `json:"channel"`
	Spend       float64   `json:"spend"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	// AttrRevenue is campaign-attributed revenue reported by the channel
	// export. Zero when the source omits the column.
	AttrRevenue float64 `json:"attr_revenue"`
}

// RevenueRecord is one day of business revenue from the business source.
type RevenueRecord struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
}

// SourceReport records the load outcome for one input file.
type SourceReport struct {
	Source      string `json:"source"`
	Path        string `json:"path"`
	RowsLoaded  int    `json:"rows_loaded"`
	RowsDropped int    `json:"rows_dropped"`
	// Error carries a source-fatal problem (missing file, missing column).
	// A source with an error contributes no rows; the other sources still load.
	Error string `json:"error,omitempty"`
}

// Dataset is a fully normalized snapshot of every input source. It is built
// fresh from the flat files on each render pass and is read-only afterwards.
type Dataset struct {
	// Records holds all accepted channel rows in load order.
	Records []ChannelRecord `json:"records"`
	// Revenue maps DayKey dates to business revenue for that day.
	Revenue map[string]float64 `json:"revenue"`
	// Fingerprint is a sha256 over the raw source bytes, in source order.
	// Memoization keys derive from it, so any input edit invalidates them.
	Fingerprint string `json:"fingerprint"`
	// Diagnostics collects every non-fatal data-quality finding from the load.
	Diagnostics []Diagnostic   `json:"diagnostics"`
	Sources     []SourceReport `json:"sources"`
}

// DateRange returns the earliest and latest record dates. ok is false for a
// dataset with no accepted channel rows.
func (d *Dataset) DateRange() (first, last time.Time, ok bool) {
	for _, r := range d.Records {
		if !ok || r.Date.Before(first) {
			first = r.Date
		}
		if !ok || r.Date.After(last) {
			last = r.Date
		}
		ok = true
	}
	return first, last, ok
}
