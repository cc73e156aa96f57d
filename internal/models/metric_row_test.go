package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSafeRatio(t *testing.T) {
	if got := SafeRatio(10, 4); got != 2.5 {
		t.Errorf("SafeRatio(10, 4) = %v, want 2.5", got)
	}

	got := SafeRatio(10, 0)
	if got.Defined() {
		t.Errorf("SafeRatio(10, 0) = %v, want undefined sentinel", got)
	}
	if !math.IsNaN(float64(got)) {
		t.Errorf("undefined ratio should carry NaN, got %v", float64(got))
	}
}

func TestRatioJSONNullSentinel(t *testing.T) {
	row := MetricRow{
		Channel:     ChannelFacebook,
		Spend:       100,
		CTR:         UndefinedRatio(),
		CPC:         UndefinedRatio(),
		CPM:         UndefinedRatio(),
		ROAS:        SafeRatio(250, 100),
		AttrROAS:    UndefinedRatio(),
		PeriodLabel: "2025-06-01",
	}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal row with undefined ratios: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["ctr"] != nil {
		t.Errorf("ctr should serialize as null, got %v", decoded["ctr"])
	}
	if decoded["roas"] != 2.5 {
		t.Errorf("roas = %v, want 2.5", decoded["roas"])
	}

	// Cached rows must round-trip null back into the sentinel.
	var back MetricRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round-trip unmarshal: %v", err)
	}
	if back.CTR.Defined() {
		t.Errorf("round-tripped ctr should stay undefined, got %v", back.CTR)
	}
	if back.ROAS != 2.5 {
		t.Errorf("round-tripped roas = %v, want 2.5", back.ROAS)
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityCritical.Rank() >= SeverityWarning.Rank() {
		t.Error("critical must rank before warning")
	}
	if SeverityWarning.Rank() >= SeverityInfo.Rank() {
		t.Error("warning must rank before info")
	}
	if Severity("bogus").Rank() <= SeverityInfo.Rank() {
		t.Error("unknown severities must rank last")
	}
}
