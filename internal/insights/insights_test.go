package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

func chRow(ch models.Channel, spend, revenue, attr float64, ctr, cpc models.Ratio) models.MetricRow {
	return models.MetricRow{
		Channel:     ch,
		Spend:       spend,
		Revenue:     revenue,
		AttrRevenue: attr,
		CTR:         ctr,
		CPC:         cpc,
		CPM:         models.UndefinedRatio(),
		ROAS:        models.SafeRatio(revenue, spend),
		AttrROAS:    models.SafeRatio(attr, spend),
	}
}

// Three channels with attribution data: facebook leads (attributed ROAS 4.0),
// google trails (1.5), tiktok underperforms badly (0.5) but has the best CTR.
func testChannelRows() []models.MetricRow {
	return []models.MetricRow{
		chRow(models.ChannelFacebook, 1000, 5000, 4000, models.Ratio(0.025), models.Ratio(1.0)),
		chRow(models.ChannelGoogle, 800, 2400, 1200, models.Ratio(0.01), models.Ratio(2.5)),
		chRow(models.ChannelTikTok, 200, 300, 100, models.Ratio(0.03), models.Ratio(3.0)),
	}
}

func testSummary() reporting.BusinessSummary {
	return reporting.BusinessSummary{
		TotalSpend:      2000,
		BusinessRevenue: 50000,
		AttrRevenue:     5300,
		OverallROAS:     models.Ratio(25),
		AttributionRate: models.Ratio(10.6),
	}
}

func TestRecommendationsFullSet(t *testing.T) {
	alerts := []models.Alert{{
		Channel:  models.ChannelFacebook,
		Rule:     "efficiency_decline",
		Severity: models.SeverityCritical,
	}}

	recs := Recommendations(testChannelRows(), testSummary(), alerts)
	assert.Len(t, recs, 5)

	// High before medium, template name within a priority.
	templates := make([]string, 0, len(recs))
	for _, r := range recs {
		templates = append(templates, r.Template)
		assert.Equal(t, r.Template, r.ID)
	}
	assert.Equal(t, []string{
		TemplateAlertFollowup,
		TemplateTopPerformer,
		TemplateUnderperforming,
		TemplateAttributionGap,
		TemplateBudgetReallocation,
	}, templates)

	top := recs[1]
	assert.Equal(t, "facebook", top.Params["channel"])
	assert.Equal(t, "4.00", top.Params["roas"])
	assert.Equal(t, "800", top.Params["projected_gain"])

	under := recs[2]
	assert.Equal(t, "google, tiktok", under.Params["channels"])
	assert.Equal(t, "150", under.Params["potential_savings"])

	gap := recs[3]
	assert.Equal(t, "10.6", gap.Params["rate_pct"])

	realloc := recs[4]
	assert.Equal(t, "tiktok", realloc.Params["from_channel"])
	assert.Equal(t, "facebook", realloc.Params["to_channel"])
	assert.Equal(t, "40", realloc.Params["amount"])
	assert.Equal(t, "140", realloc.Params["net_gain"])
}

func TestRecommendationsWithoutAttributionUseBlendedROAS(t *testing.T) {
	rows := []models.MetricRow{
		chRow(models.ChannelFacebook, 1000, 5000, 0, models.Ratio(0.025), models.Ratio(1.0)),
		chRow(models.ChannelGoogle, 800, 2400, 0, models.Ratio(0.01), models.Ratio(2.5)),
		chRow(models.ChannelTikTok, 200, 300, 0, models.Ratio(0.03), models.Ratio(3.0)),
	}

	recs := Recommendations(rows, reporting.BusinessSummary{}, nil)

	byTemplate := make(map[string]Recommendation)
	for _, r := range recs {
		byTemplate[r.Template] = r
	}

	top, ok := byTemplate[TemplateTopPerformer]
	assert.True(t, ok)
	assert.Equal(t, "facebook", top.Params["channel"])
	assert.Equal(t, "5.00", top.Params["roas"])

	under, ok := byTemplate[TemplateUnderperforming]
	assert.True(t, ok)
	assert.Equal(t, "tiktok", under.Params["channels"])

	// No attribution data, no attribution gap.
	_, ok = byTemplate[TemplateAttributionGap]
	assert.False(t, ok)
}

func TestRecommendationsEmptyInput(t *testing.T) {
	assert.Empty(t, Recommendations(nil, reporting.BusinessSummary{}, nil))
}

func TestConversionOpportunity(t *testing.T) {
	recs := Recommendations(testChannelRows(), reporting.BusinessSummary{}, nil)

	var conv *Recommendation
	for i := range recs {
		if recs[i].Template == TemplateConversionOpt {
			conv = &recs[i]
		}
	}
	if assert.NotNil(t, conv, "tiktok beats the median CTR with the worst ROAS") {
		assert.Equal(t, "tiktok", conv.Params["channel"])
		assert.Equal(t, "3.00", conv.Params["ctr_pct"])
		assert.Equal(t, PriorityMedium, conv.Priority)
	}
}

func TestBudgetConcentration(t *testing.T) {
	rows := []models.MetricRow{
		chRow(models.ChannelFacebook, 7000, 21000, 0, models.Ratio(0.02), models.Ratio(1.0)),
		chRow(models.ChannelGoogle, 3000, 9000, 0, models.Ratio(0.02), models.Ratio(1.0)),
	}

	recs := Recommendations(rows, reporting.BusinessSummary{}, nil)
	var found bool
	for _, r := range recs {
		if r.Template == TemplateBudgetConcentration {
			found = true
			assert.Equal(t, "facebook", r.Params["channel"])
			assert.Equal(t, "70", r.Params["share_pct"])
		}
	}
	assert.True(t, found)
}

func TestScorecard(t *testing.T) {
	rows := []models.MetricRow{
		// google: half the benchmark on every axis; facebook: on benchmark.
		chRow(models.ChannelGoogle, 100, 150, 0, models.Ratio(0.01), models.Ratio(4.0)),
		chRow(models.ChannelFacebook, 100, 300, 0, models.Ratio(0.02), models.Ratio(2.0)),
	}

	scores := Scorecard(rows, DefaultBenchmarks())
	assert.Len(t, scores, 2)

	// On-benchmark everywhere scores a perfect 100.
	fb := scores[0]
	assert.Equal(t, models.ChannelFacebook, fb.Channel)
	assert.InDelta(t, 100, fb.Score, 1e-9)
	assert.Equal(t, "A+", fb.Grade)
	assert.InDelta(t, 1.0, float64(fb.ROASIdx), 1e-9)

	// Half the benchmark on every axis scores 50.
	gg := scores[1]
	assert.Equal(t, models.ChannelGoogle, gg.Channel)
	assert.InDelta(t, 50, gg.Score, 1e-9)
	assert.Equal(t, "C", gg.Grade)
}

func TestScorecardUndefinedRatios(t *testing.T) {
	row := models.MetricRow{
		Channel: models.ChannelTikTok,
		CTR:     models.UndefinedRatio(),
		CPC:     models.UndefinedRatio(),
		ROAS:    models.UndefinedRatio(),
	}

	scores := Scorecard([]models.MetricRow{row}, DefaultBenchmarks())
	assert.Zero(t, scores[0].Score)
	assert.Equal(t, "D", scores[0].Grade)
	assert.False(t, scores[0].ROASIdx.Defined())
}

func TestScorecardCPCFloor(t *testing.T) {
	row := chRow(models.ChannelFacebook, 100, 0, 0, models.UndefinedRatio(), models.Ratio(0.01))

	scores := Scorecard([]models.MetricRow{row}, DefaultBenchmarks())
	// Floored CPC caps the index contribution at the full 20 points;
	// ROAS 0 and undefined CTR add nothing.
	assert.InDelta(t, 20, scores[0].Score, 1e-9)
}

func TestGrades(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {75, "B+"}, {65, "B"}, {55, "C"}, {45, "D"}, {0, "D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grade(tt.score), "score %v", tt.score)
	}
}

func TestBuildExecutiveSummary(t *testing.T) {
	recs := []Recommendation{
		{ID: "a", Priority: PriorityHigh},
		{ID: "b", Priority: PriorityMedium},
		{ID: "c", Priority: PriorityHigh},
		{ID: "d", Priority: PriorityHigh},
		{ID: "e", Priority: PriorityHigh},
	}

	es := BuildExecutiveSummary(reporting.BusinessSummary{
		OverallROAS: models.Ratio(4.5),
		TotalSpend:  2000,
	}, testChannelRows(), recs)

	assert.Equal(t, StatusExcellent, es.Status)
	assert.Equal(t, models.ChannelFacebook, es.TopChannel)
	assert.Len(t, es.TopActions, 3)
	assert.Equal(t, "a", es.TopActions[0].ID)
	assert.Equal(t, "d", es.TopActions[2].ID)
}

func TestExecutiveSummaryStatusBuckets(t *testing.T) {
	tests := []struct {
		roas models.Ratio
		want string
	}{
		{models.Ratio(5.0), StatusExcellent},
		{models.Ratio(4.0), StatusGood},
		{models.Ratio(3.0), StatusGood},
		{models.Ratio(2.5), StatusNeedsImprovement},
		{models.Ratio(1.0), StatusNeedsImprovement},
		{models.UndefinedRatio(), StatusNeedsImprovement},
	}
	for _, tt := range tests {
		es := BuildExecutiveSummary(reporting.BusinessSummary{OverallROAS: tt.roas}, nil, nil)
		assert.Equal(t, tt.want, es.Status, "roas %v", tt.roas)
	}
}
