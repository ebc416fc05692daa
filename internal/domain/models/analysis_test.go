package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestIndicatorSetJSONRoundTrip(t *testing.T) {
	set := IndicatorSet{
		"RSI14": {math.NaN(), math.NaN(), 55.2},
		"SMA20": {math.NaN(), 101.5, 102.0},
	}

	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Fatalf("expected undefined entries as null, got %s", b)
	}

	var got IndicatorSet
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rsi := got["RSI14"]
	if len(rsi) != 3 || !math.IsNaN(rsi[0]) || !math.IsNaN(rsi[1]) {
		t.Fatalf("expected leading NaN entries restored, got %v", rsi)
	}
	if rsi[2] != 55.2 {
		t.Fatalf("expected defined value preserved, got %v", rsi[2])
	}
}

func TestReportMarshalWithUndefinedEntries(t *testing.T) {
	rep := Report{
		Symbol:     "AAPL",
		Timeframes: []string{"1d"},
		Indicators: map[string]IndicatorSet{
			"1d": {"RSI14": {math.NaN(), 55.2}},
		},
		GeneratedAt: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	var got Report
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	vals := got.Indicators["1d"]["RSI14"]
	if len(vals) != 2 || !math.IsNaN(vals[0]) || vals[1] != 55.2 {
		t.Fatalf("round trip lost values: %v", vals)
	}
}
