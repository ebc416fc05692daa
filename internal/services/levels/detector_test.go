package levels

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
)

// zigzagSeries builds bars that oscillate between a floor near low and a
// ceiling near high so that swing pivots repeat at both extremes.
func zigzagSeries(tf string, low, high float64, cycles int) *models.Series {
	base := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, cycles*12)
	i := 0
	add := func(px float64) {
		bars = append(bars, models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      px, High: px + 0.2, Low: px - 0.2, Close: px,
			Volume: 500,
		})
		i++
	}
	for c := 0; c < cycles; c++ {
		mid := (low + high) / 2
		for _, px := range []float64{mid, mid + 2, high, mid + 2, mid, mid - 2, low, mid - 2} {
			add(px)
		}
	}
	// settle in the middle so the extremes read as resistance/support
	for k := 0; k < 6; k++ {
		add((low + high) / 2)
	}
	return &models.Series{Symbol: "TEST", Timeframe: tf, Bars: bars}
}

func TestDetectFindsSupportAndResistance(t *testing.T) {
	d := NewDetector(Config{PivotWindow: 3, ClusterTolerance: 0.02, MinTouches: 2, ClassicPivots: false})
	s := zigzagSeries("1d", 90, 110, 4)

	got, err := d.Detect(map[string]*models.Series{"1d": s})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected levels, got none")
	}
	var sawSupport, sawResistance bool
	for _, lv := range got {
		switch lv.Kind {
		case models.LevelSupport:
			sawSupport = true
			if lv.Price > 100 {
				t.Fatalf("support level %v above midpoint", lv.Price)
			}
		case models.LevelResistance:
			sawResistance = true
			if lv.Price < 100 {
				t.Fatalf("resistance level %v below midpoint", lv.Price)
			}
		}
		if lv.Strength < 2 {
			t.Fatalf("level with %d touches survived min_touches=2", lv.Strength)
		}
	}
	if !sawSupport || !sawResistance {
		t.Fatalf("expected both kinds, got support=%v resistance=%v", sawSupport, sawResistance)
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := NewDetector(DefaultConfig())
	in := map[string]*models.Series{
		"1d": zigzagSeries("1d", 90, 110, 4),
		"1h": zigzagSeries("1h", 88, 112, 5),
	}
	first, err := d.Detect(in)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := d.Detect(in)
		if err != nil {
			t.Fatalf("detect run %d: %v", run, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%v\nvs\n%v", run, first, again)
		}
	}
}

func TestDetectRankedByStrength(t *testing.T) {
	d := NewDetector(Config{PivotWindow: 3, ClusterTolerance: 0.02, MinTouches: 2, ClassicPivots: false})
	got, err := d.Detect(map[string]*models.Series{"1d": zigzagSeries("1d", 90, 110, 5)})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Strength > got[i-1].Strength {
			t.Fatalf("levels not sorted by strength at %d: %d > %d", i, got[i].Strength, got[i-1].Strength)
		}
	}
}

func TestDetectMergesAcrossTimeframes(t *testing.T) {
	d := NewDetector(Config{PivotWindow: 3, ClusterTolerance: 0.03, MinTouches: 2, ClassicPivots: false})
	in := map[string]*models.Series{
		"1h": zigzagSeries("1h", 90, 110, 4),
		"1d": zigzagSeries("1d", 90.5, 110.5, 4), // within 3% of the 1h levels
	}
	got, err := d.Detect(in)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for _, lv := range got {
		if lv.Timeframe == "1h" {
			t.Fatalf("merged level kept lower timeframe origin: %+v", lv)
		}
	}
}

func TestClusteringAboveToleranceStaysDistinct(t *testing.T) {
	// Two resistance zones 10% apart must never merge under a 2% tolerance,
	// no matter how often detection reruns on its own output's pivots.
	d := NewDetector(Config{PivotWindow: 2, ClusterTolerance: 0.02, MinTouches: 1, ClassicPivots: false})

	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{}
	i := 0
	add := func(px float64) {
		bars = append(bars, models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      px, High: px, Low: px - 0.1, Close: px - 0.05,
			Volume: 1,
		})
		i++
	}
	for _, px := range []float64{100, 101, 110, 101, 100, 101, 121, 101, 100, 101, 110, 101, 100, 101, 121, 101, 100} {
		add(px)
	}
	s := &models.Series{Symbol: "TEST", Timeframe: "1d", Bars: bars}

	resistances := func(ls []models.Level) []float64 {
		out := []float64{}
		for _, lv := range ls {
			if lv.Kind == models.LevelResistance {
				out = append(out, lv.Price)
			}
		}
		return out
	}

	got, err := d.Detect(map[string]*models.Series{"1d": s})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	rs := resistances(got)
	if len(rs) < 2 {
		t.Fatalf("expected two distinct resistance zones, got %v", rs)
	}
}

func TestDetectInvalidConfig(t *testing.T) {
	d := NewDetector(Config{PivotWindow: 0, ClusterTolerance: 0.02, MinTouches: 1})
	_, err := d.Detect(map[string]*models.Series{"1d": zigzagSeries("1d", 90, 110, 2)})
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
