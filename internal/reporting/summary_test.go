package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrickwarner/marketpulse/internal/models"
)

func TestSummarize(t *testing.T) {
	s := Summarize(testDataset(t))

	assert.Equal(t, "2025-06-02", s.From)
	assert.Equal(t, "2025-06-04", s.To)
	assert.Equal(t, 3, s.Days)
	assert.InDelta(t, 406.5, s.TotalSpend, 1e-9)
	assert.Equal(t, int64(33000), s.TotalImpressions)
	assert.Equal(t, int64(630), s.TotalClicks)
	assert.InDelta(t, 2650.5, s.BusinessRevenue, 1e-9)
	assert.InDelta(t, 950, s.AttrRevenue, 1e-9)
	assert.InDelta(t, 2650.5/406.5, float64(s.OverallROAS), 1e-9)
	assert.InDelta(t, 950/406.5, float64(s.AttrROAS), 1e-9)
	assert.InDelta(t, 950/2650.5*100, float64(s.AttributionRate), 1e-9)
	assert.InDelta(t, 406.5/3, float64(s.AvgDailySpend), 1e-9)
	assert.InDelta(t, 2650.5/3, float64(s.AvgDailyRevenue), 1e-9)
}

func TestSummarizeEmptyDataset(t *testing.T) {
	s := Summarize(&models.Dataset{})

	assert.Empty(t, s.From)
	assert.Zero(t, s.Days)
	assert.False(t, s.OverallROAS.Defined())
	assert.False(t, s.AvgDailySpend.Defined())
	assert.False(t, s.AttributionRate.Defined())
}

func TestSummarizeSkipsNegativeRevenue(t *testing.T) {
	ds := testDataset(t)
	ds.Revenue["2025-06-03"] = -750.5

	s := Summarize(ds)
	assert.InDelta(t, 1900, s.BusinessRevenue, 1e-9)
}
