package reporting

import (
	"testing"
	"time"

	"github.com/patrickwarner/marketpulse/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(models.DayKeyFormat, s, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func rec(t *testing.T, date string, ch models.Channel, spend float64, impressions, clicks int64, attr float64) models.ChannelRecord {
	t.Helper()
	return models.ChannelRecord{
		Date:        day(t, date),
		Channel:     ch,
		Spend:       spend,
		Impressions: impressions,
		Clicks:      clicks,
		AttrRevenue: attr,
	}
}

// testDataset covers three days in ISO week 2025-W23 with two channels and
// per-day business revenue.
func testDataset(t *testing.T) *models.Dataset {
	t.Helper()
	return &models.Dataset{
		Records: []models.ChannelRecord{
			rec(t, "2025-06-02", models.ChannelFacebook, 120.5, 10000, 200, 300),
			rec(t, "2025-06-02", models.ChannelGoogle, 80.25, 6000, 90, 150),
			rec(t, "2025-06-03", models.ChannelFacebook, 95, 8000, 160, 240),
			rec(t, "2025-06-04", models.ChannelGoogle, 110.75, 9000, 180, 260),
		},
		Revenue: map[string]float64{
			"2025-06-02": 1000,
			"2025-06-03": 750.5,
			"2025-06-04": 900,
		},
		Fingerprint: "test",
	}
}
