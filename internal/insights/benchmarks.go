package insights

import (
	"sort"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// Benchmarks are the reference values channels are scored against. They stand
// in for industry data the dashboard does not have a feed for.
type Benchmarks struct {
	ROAS float64
	CTR  float64
	CPC  float64
}

// DefaultBenchmarks returns the stock reference values.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{ROAS: 3.0, CTR: 0.02, CPC: 2.0}
}

// ChannelScore grades one channel against the benchmarks. The index fields
// are the channel's value relative to the benchmark (1.0 = on par); undefined
// inputs stay undefined and contribute nothing to the score.
type ChannelScore struct {
	Channel models.Channel `json:"channel"`
	Score   float64        `json:"score"`
	Grade   string         `json:"grade"`
	ROASIdx models.Ratio   `json:"roas_vs_benchmark"`
	CTRIdx  models.Ratio   `json:"ctr_vs_benchmark"`
	CPCIdx  models.Ratio   `json:"cpc_vs_benchmark"`
}

// Scorecard scores each channel row 0-100: half the weight on ROAS, less on
// CTR and CPC. Results order best score first, then channel name.
func Scorecard(channelRows []models.MetricRow, b Benchmarks) []ChannelScore {
	scores := make([]ChannelScore, 0, len(channelRows))
	for _, row := range channelRows {
		s := ChannelScore{
			Channel: row.Channel,
			ROASIdx: models.UndefinedRatio(),
			CTRIdx:  models.UndefinedRatio(),
			CPCIdx:  models.UndefinedRatio(),
		}

		if row.ROAS.Defined() && b.ROAS > 0 {
			s.ROASIdx = models.Ratio(float64(row.ROAS) / b.ROAS)
			s.Score += capScore(float64(s.ROASIdx)*100) * 0.5
		}
		if row.CTR.Defined() && b.CTR > 0 {
			s.CTRIdx = models.Ratio(float64(row.CTR) / b.CTR)
			s.Score += capScore(float64(s.CTRIdx)*100) * 0.3
		}
		if row.CPC.Defined() {
			// Cheaper clicks score higher; a floor keeps near-free clicks
			// from producing absurd indices.
			cpc := float64(row.CPC)
			if cpc < 0.1 {
				cpc = 0.1
			}
			s.CPCIdx = models.Ratio(b.CPC / cpc)
			s.Score += capScore(float64(s.CPCIdx)*100) * 0.2
		}

		s.Grade = grade(s.Score)
		scores = append(scores, s)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Channel < scores[j].Channel
	})
	return scores
}

func capScore(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B+"
	case score >= 60:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}
