// Fake Data Tool generates synthetic marketing CSV exports for local
// development and demos.
//
// Each channel gets its own personality (budget, CPM, CTR, conversion rate,
// weekend behavior) so the generated dashboard looks like real media buying
// instead of white noise. Business revenue is derived from the attributed
// totals plus organic volume, keeping the attribution rate in a plausible
// band.
//
// Usage:
//
//	go run ./tools/fake_data -out=./data -days=90 -seed=42
//
// The same seed always produces the same files.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/observability"
)

var (
	out  = flag.String("out", envOr("DATA_DIR", "./data"), "output directory for the CSV files")
	days = flag.Int("days", 90, "number of days to generate, ending today")
	seed = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

// channelProfile shapes one channel's synthetic numbers.
type channelProfile struct {
	channel     models.Channel
	file        string
	baseSpend   float64 // average daily budget in dollars
	spendJitter float64 // fraction of baseSpend the daily budget wanders
	cpm         float64 // dollars per thousand impressions
	ctr         float64
	convRate    float64 // conversions per click
	orderValue  float64 // dollars per conversion
	weekendLift float64 // weekend spend multiplier
}

func profiles() []channelProfile {
	return []channelProfile{
		{models.ChannelFacebook, "Facebook.csv", 420, 0.25, 8.5, 0.021, 0.031, 86, 1.15},
		{models.ChannelGoogle, "Google.csv", 610, 0.20, 11.2, 0.034, 0.042, 104, 0.90},
		{models.ChannelTikTok, "TikTok.csv", 260, 0.35, 6.1, 0.016, 0.022, 64, 1.30},
	}
}

type channelRow struct {
	date        time.Time
	spend       float64
	impressions int64
	clicks      int64
	attr        float64
}

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *days < 1 {
		logger.Fatal("days must be at least 1", zap.Int("days", *days))
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Fatal("create output directory", zap.Error(err))
	}

	r := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -*days+1)

	profs := profiles()
	rows := make([][]channelRow, len(profs))
	attrByDay := make([]float64, *days)

	for d := 0; d < *days; d++ {
		date := start.AddDate(0, 0, d)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		for i, p := range profs {
			spend := p.baseSpend * (1 + p.spendJitter*(r.Float64()*2-1))
			if weekend {
				spend *= p.weekendLift
			}

			impressions := int64(spend / p.cpm * 1000 * (0.9 + 0.2*r.Float64()))
			clicks := int64(float64(impressions) * p.ctr * (0.8 + 0.4*r.Float64()))
			if clicks > impressions {
				clicks = impressions
			}
			attr := float64(clicks) * p.convRate * p.orderValue * (0.85 + 0.3*r.Float64())

			rows[i] = append(rows[i], channelRow{
				date:        date,
				spend:       spend,
				impressions: impressions,
				clicks:      clicks,
				attr:        attr,
			})
			attrByDay[d] += attr
		}
	}

	for i, p := range profs {
		path := filepath.Join(*out, p.file)
		if err := writeChannelCSV(path, p.channel, rows[i]); err != nil {
			logger.Fatal("write channel file", zap.String("path", path), zap.Error(err))
		}
		logger.Info("wrote channel export",
			zap.String("path", path),
			zap.String("channel", string(p.channel)),
			zap.Int("rows", len(rows[i])))
	}

	businessPath := filepath.Join(*out, "Business.csv")
	if err := writeBusinessCSV(businessPath, start, attrByDay, r); err != nil {
		logger.Fatal("write business file", zap.String("path", businessPath), zap.Error(err))
	}
	logger.Info("wrote business export", zap.String("path", businessPath), zap.Int("rows", *days))

	logger.Info("fake data generated",
		zap.Int("days", *days),
		zap.Int64("seed", *seed),
		zap.String("out", *out))
}

func writeChannelCSV(path string, channel models.Channel, rows []channelRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "channel", "spend", "impressions", "clicks", "attributed_revenue"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.date.Format(models.DayKeyFormat),
			string(channel),
			fmt.Sprintf("%.2f", row.spend),
			strconv.FormatInt(row.impressions, 10),
			strconv.FormatInt(row.clicks, 10),
			fmt.Sprintf("%.2f", row.attr),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeBusinessCSV derives daily business revenue from the attributed totals.
// Channels claim roughly 25-35% of revenue, the rest is organic volume.
func writeBusinessCSV(path string, start time.Time, attrByDay []float64, r *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "revenue"}); err != nil {
		return err
	}
	for d, attr := range attrByDay {
		date := start.AddDate(0, 0, d)
		rate := 0.25 + 0.10*r.Float64()
		revenue := attr / rate
		record := []string{
			date.Format(models.DayKeyFormat),
			fmt.Sprintf("%.2f", revenue),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// envOr retrieves an environment variable value or returns a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
