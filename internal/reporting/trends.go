package reporting

import (
	"time"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// TrendPoint is a by-day metric row with trailing-window context attached
// for charting.
type TrendPoint struct {
	models.MetricRow
	SpendAvg   models.Ratio `json:"spend_avg"`
	RevenueAvg models.Ratio `json:"revenue_avg"`
	// ROASAvg is recomputed from the window's summed revenue and spend, not
	// averaged from the per-day ratios.
	ROASAvg models.Ratio `json:"roas_avg"`
}

// Trends decorates day rows with trailing means over the given window.
// Points earlier than a full window average whatever exists, so charts start
// smooth instead of empty.
func Trends(rows []models.MetricRow, window int) []TrendPoint {
	if window < 1 {
		window = 1
	}

	out := make([]TrendPoint, 0, len(rows))
	for i, row := range rows {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		var spend, revenue float64
		for _, w := range rows[start : i+1] {
			spend += w.Spend
			revenue += w.Revenue
		}
		n := float64(i - start + 1)

		out = append(out, TrendPoint{
			MetricRow:  row,
			SpendAvg:   models.Ratio(spend / n),
			RevenueAvg: models.Ratio(revenue / n),
			ROASAvg:    models.SafeRatio(revenue, spend),
		})
	}
	return out
}

// WeekdayPattern is the average performance of one day of the week across
// the dataset, used to spot recurring weekly rhythm.
type WeekdayPattern struct {
	Weekday    string       `json:"weekday"`
	Days       int          `json:"days"`
	AvgSpend   models.Ratio `json:"avg_spend"`
	AvgRevenue models.Ratio `json:"avg_revenue"`
	ROAS       models.Ratio `json:"roas"`
}

// WeekdayPatterns buckets by-day rows by day of week. Weekly seasonality is
// meaningless on a short window, so fewer than minDays day rows returns nil.
func WeekdayPatterns(rows []models.MetricRow, minDays int) []WeekdayPattern {
	if len(rows) < minDays {
		return nil
	}

	type acc struct {
		days    int
		spend   float64
		revenue float64
	}
	byWeekday := make(map[time.Weekday]*acc)
	for _, row := range rows {
		wd := row.Period.Weekday()
		a := byWeekday[wd]
		if a == nil {
			a = &acc{}
			byWeekday[wd] = a
		}
		a.days++
		a.spend += row.Spend
		a.revenue += row.Revenue
	}

	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	var out []WeekdayPattern
	for _, wd := range order {
		a := byWeekday[wd]
		if a == nil {
			continue
		}
		out = append(out, WeekdayPattern{
			Weekday:    wd.String(),
			Days:       a.days,
			AvgSpend:   models.SafeRatio(a.spend, float64(a.days)),
			AvgRevenue: models.SafeRatio(a.revenue, float64(a.days)),
			ROAS:       models.SafeRatio(a.revenue, a.spend),
		})
	}
	return out
}
