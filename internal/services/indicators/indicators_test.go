package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
)

func seriesFromCloses(closes []float64) *models.Series {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return &models.Series{Symbol: "TEST", Timeframe: "1m", Bars: bars}
}

func TestRSIBounds(t *testing.T) {
	closes := make([]float64, 60)
	price := 100.0
	for i := range closes {
		// deterministic zigzag walk
		if i%3 == 0 {
			price += 1.7
		} else {
			price -= 0.9
		}
		closes[i] = price
	}
	rsi := RSI(closes, 14)
	for i := 0; i < 14; i++ {
		if Defined(rsi[i]) {
			t.Fatalf("rsi[%d] should be undefined, got %v", i, rsi[i])
		}
	}
	for i := 14; i < len(rsi); i++ {
		if !Defined(rsi[i]) {
			t.Fatalf("rsi[%d] should be defined", i)
		}
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Fatalf("rsi[%d]=%v out of [0,100]", i, rsi[i])
		}
	}
}

func TestRSIStrictlyRising(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)
	prev := 0.0
	for i := 14; i < len(rsi); i++ {
		if rsi[i] < prev {
			t.Fatalf("rsi not monotonic at %d: %v < %v", i, rsi[i], prev)
		}
		prev = rsi[i]
	}
	if got := rsi[len(rsi)-1]; got != 100 {
		t.Fatalf("expected rsi 100 with no losses, got %v", got)
	}
}

func TestRSIConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	rsi := RSI(closes, 14)
	for i := 0; i <= 13; i++ {
		if Defined(rsi[i]) {
			t.Fatalf("rsi[%d] should be undefined", i)
		}
	}
	for i := 14; i < 30; i++ {
		if rsi[i] != 50 {
			t.Fatalf("constant series rsi[%d]=%v, want 50", i, rsi[i])
		}
	}
}

func TestBollingerOrderingAndConstantWidth(t *testing.T) {
	closes := []float64{
		101, 99, 102, 98, 103, 97, 104, 96, 105, 95,
		101, 99, 102, 98, 103, 97, 104, 96, 105, 95,
		101, 99, 102, 98, 103,
	}
	bb := Bollinger(closes, 20, 2)
	for i := range closes {
		if i < 19 {
			if Defined(bb.Upper[i]) || Defined(bb.Lower[i]) {
				t.Fatalf("band[%d] should be undefined", i)
			}
			continue
		}
		if !(bb.Upper[i] >= bb.Middle[i] && bb.Middle[i] >= bb.Lower[i]) {
			t.Fatalf("band ordering violated at %d: %v %v %v", i, bb.Upper[i], bb.Middle[i], bb.Lower[i])
		}
	}

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	fb := Bollinger(flat, 20, 2)
	last := len(flat) - 1
	if width := fb.Upper[last] - fb.Lower[last]; width != 0 {
		t.Fatalf("constant series band width = %v, want 0", width)
	}
}

func TestMACDUndefinedPrefix(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/3)*5
	}
	res := MACD(closes, 12, 26, 9)
	firstDefined := 26 + 9 - 2
	for i := 0; i < firstDefined; i++ {
		if Defined(res.Signal[i]) {
			t.Fatalf("signal[%d] should be undefined", i)
		}
	}
	if !Defined(res.Signal[firstDefined]) {
		t.Fatalf("signal[%d] should be defined", firstDefined)
	}
	for i := firstDefined; i < len(closes); i++ {
		want := res.Line[i] - res.Signal[i]
		if math.Abs(res.Histogram[i]-want) > 1e-12 {
			t.Fatalf("histogram[%d]=%v, want %v", i, res.Histogram[i], want)
		}
	}
}

func TestSMAWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma := SMA(values, 3)
	if Defined(sma[0]) || Defined(sma[1]) {
		t.Fatalf("sma prefix should be undefined")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if sma[i+2] != w {
			t.Fatalf("sma[%d]=%v, want %v", i+2, sma[i+2], w)
		}
	}
}

func TestEMASeed(t *testing.T) {
	values := []float64{2, 4, 6, 8}
	ema := EMA(values, 3)
	if Defined(ema[0]) || Defined(ema[1]) {
		t.Fatalf("ema prefix should be undefined")
	}
	if ema[2] != 4 { // SMA seed over first 3
		t.Fatalf("ema seed = %v, want 4", ema[2])
	}
	alpha := 2.0 / 4.0
	want := alpha*8 + (1-alpha)*4
	if math.Abs(ema[3]-want) > 1e-12 {
		t.Fatalf("ema[3]=%v, want %v", ema[3], want)
	}
}

func TestRegistryCompute(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	s := seriesFromCloses(closes)

	r := NewRegistry()
	set, err := r.Compute(s, DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, name := range []string{"RSI14", "MACD", "MACD_SIGNAL", "MACD_HIST", "BB_UPPER", "BB_MID", "BB_LOWER", "SMA20", "SMA50", "EMA12", "EMA26"} {
		v, ok := set[name]
		if !ok {
			t.Fatalf("missing indicator %s", name)
		}
		if len(v) != s.Len() {
			t.Fatalf("%s length %d, want %d", name, len(v), s.Len())
		}
	}
}

func TestRegistryInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MACDFast = 30 // >= slow
	r := NewRegistry()
	_, err := r.Compute(seriesFromCloses([]float64{1, 2, 3}), cfg)
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRegistryCustomIndicator(t *testing.T) {
	r := NewRegistry()
	r.Register("range", func(s *models.Series, cfg Config) (models.IndicatorSet, error) {
		out := make([]float64, s.Len())
		for i, b := range s.Bars {
			out[i] = b.High - b.Low
		}
		return models.IndicatorSet{"RANGE": out}, nil
	})
	set, err := r.Compute(seriesFromCloses([]float64{1, 2, 3}), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, ok := set["RANGE"]; !ok {
		t.Fatalf("custom indicator not computed")
	}
}
