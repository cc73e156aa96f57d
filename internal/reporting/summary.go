package reporting

import (
	"time"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// BusinessSummary sets the dataset's marketing activity against business
// revenue for the whole covered window. It is the source of the dashboard's
// headline numbers.
type BusinessSummary struct {
	From             string       `json:"from"`
	To               string       `json:"to"`
	Days             int          `json:"days"`
	TotalSpend       float64      `json:"total_spend"`
	TotalImpressions int64        `json:"total_impressions"`
	TotalClicks      int64        `json:"total_clicks"`
	BusinessRevenue  float64      `json:"business_revenue"`
	AttrRevenue      float64      `json:"attr_revenue"`
	OverallROAS      models.Ratio `json:"overall_roas"`
	AttrROAS         models.Ratio `json:"attr_roas"`
	// AttributionRate is the share of business revenue the channel exports
	// claim credit for, in percent. Undefined without attribution data.
	AttributionRate models.Ratio `json:"attribution_rate"`
	AvgDailySpend   models.Ratio `json:"avg_daily_spend"`
	AvgDailyRevenue models.Ratio `json:"avg_daily_revenue"`
}

// Summarize reduces a dataset to its headline business-impact numbers.
func Summarize(ds *models.Dataset) BusinessSummary {
	var s BusinessSummary

	for _, rec := range ds.Records {
		s.TotalSpend += rec.Spend
		s.TotalImpressions += rec.Impressions
		s.TotalClicks += rec.Clicks
		s.AttrRevenue += rec.AttrRevenue
	}
	for _, rev := range ds.Revenue {
		if rev < 0 {
			continue
		}
		s.BusinessRevenue += rev
	}

	if first, last, ok := ds.DateRange(); ok {
		s.From = models.DayKey(first)
		s.To = models.DayKey(last)
		s.Days = int(last.Sub(first)/(24*time.Hour)) + 1
	}

	s.OverallROAS = models.SafeRatio(s.BusinessRevenue, s.TotalSpend)
	s.AttrROAS = models.SafeRatio(s.AttrRevenue, s.TotalSpend)
	s.AttributionRate = models.SafeRatio(s.AttrRevenue, s.BusinessRevenue) * 100
	s.AvgDailySpend = models.SafeRatio(s.TotalSpend, float64(s.Days))
	s.AvgDailyRevenue = models.SafeRatio(s.BusinessRevenue, float64(s.Days))
	return s
}
