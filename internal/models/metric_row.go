package models

import (
	"encoding/json"
	"math"
	"time"
)

// Ratio is a derived metric value. Dividing by zero yields an undefined
// ratio, carried in-process as NaN and serialized as JSON null so the
// presentation layer renders "not available" instead of a bogus zero.
// An undefined ratio is never an error and never compares negative.
type Ratio float64

// UndefinedRatio returns the not-available sentinel.
func UndefinedRatio() Ratio {
	return Ratio(math.NaN())
}

// SafeRatio divides num by den, returning the undefined sentinel when the
// denominator is zero.
func SafeRatio(num, den float64) Ratio {
	if den == 0 {
		return UndefinedRatio()
	}
	return Ratio(num / den)
}

// Defined reports whether the ratio holds an actual value.
func (r Ratio) Defined() bool {
	return !math.IsNaN(float64(r)) && !math.IsInf(float64(r), 0)
}

// MarshalJSON encodes undefined ratios as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON decodes null back into the undefined sentinel so cached
// rows round-trip without inventing zeros.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = UndefinedRatio()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// MetricRow is one aggregated row of dashboard output: the additive totals
// for a (period, channel) partition plus the ratios recomputed from those
// totals. Rows are computed fresh on every render pass and never persisted.
type MetricRow struct {
	// Period is the bucket start: the day itself, the ISO-week Monday, or
	// the first of the month, at UTC midnight.
	Period      time.Time `json:"period"`
	PeriodLabel string    `json:"period_label"`
	// Channel is a single channel for channel-scoped groupings and
	// ChannelAll for rows pooled across channels.
	Channel     Channel `json:"channel"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	AttrRevenue float64 `json:"attr_revenue"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         Ratio   `json:"ctr"`
	CPC         Ratio   `json:"cpc"`
	CPM         Ratio   `json:"cpm"`
	ROAS        Ratio   `json:"roas"`
	AttrROAS    Ratio   `json:"attr_roas"`
}

// Delta is the movement of one metric between two periods. Pct is undefined
// when the previous value was zero and the current one is not.
type Delta struct {
	Abs Ratio `json:"abs"`
	Pct Ratio `json:"pct"`
}

// MetricDeltas holds per-metric movement for a comparison row.
type MetricDeltas struct {
	Spend       Delta `json:"spend"`
	Revenue     Delta `json:"revenue"`
	Impressions Delta `json:"impressions"`
	Clicks      Delta `json:"clicks"`
	CTR         Delta `json:"ctr"`
	CPC         Delta `json:"cpc"`
	CPM         Delta `json:"cpm"`
	ROAS        Delta `json:"roas"`
}

// ComparisonRow pairs a current metric row with its movement versus the
// matching row of the prior window. A row with no prior match carries
// all-undefined deltas.
type ComparisonRow struct {
	MetricRow
	Deltas MetricDeltas `json:"deltas"`
}
