// Package reporting computes the dashboard's derived marketing metrics. It
// partitions the normalized dataset, sums the additive fields and recomputes
// every ratio from the summed totals, then layers comparisons, summaries and
// trend smoothing on top. Everything here is pure: no storage, no clocks, no
// hidden state, so identical inputs always produce identical rows.
package reporting

import (
	"fmt"
	"sort"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// Aggregate partitions the dataset's records by the grouping key and reduces
// each partition to one metric row. Spend, impressions, clicks and attributed
// revenue are summed; business revenue joins by date and is counted once per
// distinct covered date, not once per record. Ratios are recomputed from the
// summed totals, never averaged from per-row ratios, so a huge partition is
// never diluted by a tiny one.
//
// The returned rows are sorted ascending by period start, then channel. The
// diagnostics carry non-fatal data-quality findings; they never abort the
// aggregation.
func Aggregate(ds *models.Dataset, g Grouping) ([]models.MetricRow, []models.Diagnostic) {
	windowFirst, windowLast, ok := ds.DateRange()
	if !ok {
		return nil, nil
	}

	diags, revenueOn := screenRevenue(ds)

	type bucket struct {
		row   models.MetricRow
		dates map[string]bool
	}
	buckets := make(map[string]*bucket)

	byChannel := g == GroupByChannel || g == GroupByChannelDay
	for _, rec := range ds.Records {
		start := periodStart(g, rec.Date)
		if g == GroupByChannel {
			start = windowFirst
		}
		channel := models.ChannelAll
		if byChannel {
			channel = rec.Channel
		}

		key := models.DayKey(start) + "|" + string(channel)
		b := buckets[key]
		if b == nil {
			label := periodLabel(g, start)
			if g == GroupByChannel {
				label = fmt.Sprintf("%s..%s", models.DayKey(windowFirst), models.DayKey(windowLast))
			}
			b = &bucket{
				row:   models.MetricRow{Period: start, PeriodLabel: label, Channel: channel},
				dates: make(map[string]bool),
			}
			buckets[key] = b
		}

		b.row.Spend += rec.Spend
		b.row.Impressions += rec.Impressions
		b.row.Clicks += rec.Clicks
		b.row.AttrRevenue += rec.AttrRevenue
		b.dates[models.DayKey(rec.Date)] = true
	}

	rows := make([]models.MetricRow, 0, len(buckets))
	for _, b := range buckets {
		dates := make([]string, 0, len(b.dates))
		for d := range b.dates {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		row := b.row
		for _, d := range dates {
			row.Revenue += revenueOn(d)
		}
		row.CTR = models.SafeRatio(float64(row.Clicks), float64(row.Impressions))
		row.CPC = models.SafeRatio(row.Spend, float64(row.Clicks))
		row.CPM = models.SafeRatio(row.Spend, float64(row.Impressions)) * 1000
		row.ROAS = models.SafeRatio(row.Revenue, row.Spend)
		row.AttrROAS = models.SafeRatio(row.AttrRevenue, row.Spend)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Period.Equal(rows[j].Period) {
			return rows[i].Period.Before(rows[j].Period)
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows, diags
}

// screenRevenue reports any negative stored revenue as a diagnostic and
// returns a lookup that excludes those dates from sums. The loader already
// rejects negative revenue rows, so this guards datasets built by hand.
func screenRevenue(ds *models.Dataset) ([]models.Diagnostic, func(string) float64) {
	var bad []string
	for key, rev := range ds.Revenue {
		if rev < 0 {
			bad = append(bad, key)
		}
	}
	sort.Strings(bad)

	var diags []models.Diagnostic
	excluded := make(map[string]bool, len(bad))
	for _, key := range bad {
		excluded[key] = true
		diags = append(diags, models.Diagnostic{
			Field:   "revenue",
			Code:    models.DiagNegativeValue,
			Message: fmt.Sprintf("negative business revenue for %s excluded from aggregation", key),
		})
	}

	return diags, func(key string) float64 {
		if excluded[key] {
			return 0
		}
		return ds.Revenue[key]
	}
}
