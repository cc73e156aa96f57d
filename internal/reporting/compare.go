package reporting

import (
	"math"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// Compare attaches absolute and percentage movement to every current row by
// aligning it with the previous window's rows. Rows align by channel, k-th
// occurrence to k-th occurrence, so two same-grouping windows line up period
// by period. A row with no counterpart keeps undefined deltas; missing
// comparison data is suppressed, never an error.
func Compare(current, previous []models.MetricRow) []models.ComparisonRow {
	prevByChannel := make(map[models.Channel][]models.MetricRow)
	for _, row := range previous {
		prevByChannel[row.Channel] = append(prevByChannel[row.Channel], row)
	}

	seen := make(map[models.Channel]int)
	out := make([]models.ComparisonRow, 0, len(current))
	for _, row := range current {
		cr := models.ComparisonRow{MetricRow: row, Deltas: undefinedDeltas()}
		idx := seen[row.Channel]
		seen[row.Channel]++
		if prevRows := prevByChannel[row.Channel]; idx < len(prevRows) {
			cr.Deltas = deltasBetween(row, prevRows[idx])
		}
		out = append(out, cr)
	}
	return out
}

// LastWindows splits same-grouping rows into the trailing n periods and the n
// periods before those, preserving row order. Rows outside both windows are
// dropped. Either window may come back short when the data does not cover it.
func LastWindows(rows []models.MetricRow, n int) (current, previous []models.MetricRow) {
	if n < 1 || len(rows) == 0 {
		return nil, nil
	}

	var labels []string
	seen := make(map[string]bool)
	for _, row := range rows {
		if !seen[row.PeriodLabel] {
			seen[row.PeriodLabel] = true
			labels = append(labels, row.PeriodLabel)
		}
	}

	curStart := len(labels) - n
	if curStart < 0 {
		curStart = 0
	}
	prevStart := curStart - n
	if prevStart < 0 {
		prevStart = 0
	}

	inCurrent := make(map[string]bool, n)
	for _, l := range labels[curStart:] {
		inCurrent[l] = true
	}
	inPrevious := make(map[string]bool, n)
	for _, l := range labels[prevStart:curStart] {
		inPrevious[l] = true
	}

	for _, row := range rows {
		switch {
		case inCurrent[row.PeriodLabel]:
			current = append(current, row)
		case inPrevious[row.PeriodLabel]:
			previous = append(previous, row)
		}
	}
	return current, previous
}

func deltasBetween(cur, prev models.MetricRow) models.MetricDeltas {
	return models.MetricDeltas{
		Spend:       delta(cur.Spend, prev.Spend),
		Revenue:     delta(cur.Revenue, prev.Revenue),
		Impressions: delta(float64(cur.Impressions), float64(prev.Impressions)),
		Clicks:      delta(float64(cur.Clicks), float64(prev.Clicks)),
		CTR:         ratioDelta(cur.CTR, prev.CTR),
		CPC:         ratioDelta(cur.CPC, prev.CPC),
		CPM:         ratioDelta(cur.CPM, prev.CPM),
		ROAS:        ratioDelta(cur.ROAS, prev.ROAS),
	}
}

// delta computes movement between two values. The percentage is undefined
// when the previous value was zero and the current one is not; two zeros
// compare as unchanged.
func delta(cur, prev float64) models.Delta {
	d := models.Delta{Abs: models.Ratio(cur - prev)}
	switch {
	case prev != 0:
		d.Pct = models.Ratio((cur - prev) / math.Abs(prev) * 100)
	case cur == 0:
		d.Pct = 0
	default:
		d.Pct = models.UndefinedRatio()
	}
	return d
}

// ratioDelta suppresses movement entirely when either side is undefined.
func ratioDelta(cur, prev models.Ratio) models.Delta {
	if !cur.Defined() || !prev.Defined() {
		return models.Delta{Abs: models.UndefinedRatio(), Pct: models.UndefinedRatio()}
	}
	return delta(float64(cur), float64(prev))
}

func undefinedDeltas() models.MetricDeltas {
	u := models.Delta{Abs: models.UndefinedRatio(), Pct: models.UndefinedRatio()}
	return models.MetricDeltas{
		Spend: u, Revenue: u, Impressions: u, Clicks: u,
		CTR: u, CPC: u, CPM: u, ROAS: u,
	}
}
