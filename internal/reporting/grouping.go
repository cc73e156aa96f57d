package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// Grouping selects how channel records are partitioned before summing.
type Grouping string

const (
	GroupByDay        Grouping = "day"
	GroupByWeek       Grouping = "week"
	GroupByMonth      Grouping = "month"
	GroupByChannel    Grouping = "channel"
	GroupByChannelDay Grouping = "channel_day"
)

// Groupings lists every supported grouping in display order.
func Groupings() []Grouping {
	return []Grouping{GroupByDay, GroupByWeek, GroupByMonth, GroupByChannel, GroupByChannelDay}
}

// ParseGrouping validates a grouping name from a request or flag.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return GroupByDay, nil
	case "week", "weekly":
		return GroupByWeek, nil
	case "month", "monthly":
		return GroupByMonth, nil
	case "channel":
		return GroupByChannel, nil
	case "channel_day", "channel-day":
		return GroupByChannelDay, nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

// periodStart truncates a date to its bucket start: the day itself, the ISO
// week's Monday, or the first of the month.
func periodStart(g Grouping, t time.Time) time.Time {
	switch g {
	case GroupByWeek:
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return t.AddDate(0, 0, 1-wd)
	case GroupByMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// periodLabel renders a bucket start for display and comparison keys.
func periodLabel(g Grouping, start time.Time) string {
	switch g {
	case GroupByWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByMonth:
		return start.Format("2006-01")
	default:
		return start.Format(models.DayKeyFormat)
	}
}
