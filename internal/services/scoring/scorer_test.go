package scoring

import (
	"errors"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
	"MarketPrep/internal/services/indicators"
)

func trendingSeries(n int, step float64) *models.Series {
	base := time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		price += step
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price - step, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000,
		}
	}
	return &models.Series{Symbol: "TEST", Timeframe: "1d", Bars: bars}
}

func computed(t *testing.T, s *models.Series) models.IndicatorSet {
	t.Helper()
	set, err := indicators.NewRegistry().Compute(s, indicators.DefaultConfig())
	if err != nil {
		t.Fatalf("compute indicators: %v", err)
	}
	return set
}

func TestScoreWeightsMustSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = map[string]float64{FactorRSI: 0.5, FactorLevels: 0.3}
	s := trendingSeries(60, 1)
	_, err := NewScorer(cfg).Score("TEST", computed(t, s), nil, s)
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestScoreUnknownFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = map[string]float64{"sentiment": 1.0}
	s := trendingSeries(60, 1)
	_, err := NewScorer(cfg).Score("TEST", computed(t, s), nil, s)
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestScoreRangeAndFactors(t *testing.T) {
	s := trendingSeries(80, 1)
	score, err := NewScorer(DefaultConfig()).Score("TEST", computed(t, s), nil, s)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Value < 0 || score.Value > 100 {
		t.Fatalf("score %v out of [0,100]", score.Value)
	}
	if len(score.Factors) != 5 {
		t.Fatalf("expected 5 factor contributions, got %d", len(score.Factors))
	}
	sum := 0.0
	for _, c := range score.Factors {
		sum += c
	}
	if diff := sum - score.Value; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("factor contributions sum %v != value %v", sum, score.Value)
	}
}

func TestUptrendOutscoresDowntrend(t *testing.T) {
	up := trendingSeries(80, 1)
	down := trendingSeries(80, -0.5)

	scorer := NewScorer(DefaultConfig())
	upScore, err := scorer.Score("UP", computed(t, up), nil, up)
	if err != nil {
		t.Fatalf("score up: %v", err)
	}
	downScore, err := scorer.Score("DOWN", computed(t, down), nil, down)
	if err != nil {
		t.Fatalf("score down: %v", err)
	}
	if upScore.Value <= downScore.Value {
		t.Fatalf("uptrend %v should outscore downtrend %v", upScore.Value, downScore.Value)
	}
}

func choppySeries(n int) *models.Series {
	base := time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		price := 100.0
		if i%2 == 0 {
			price = 102.0
		}
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000,
		}
	}
	return &models.Series{Symbol: "TEST", Timeframe: "1d", Bars: bars}
}

func TestLevelsFactorPrefersRoomAboveResistance(t *testing.T) {
	s := choppySeries(80)
	last, _ := s.Last()

	nearResistance := []models.Level{
		{Price: last.Close * 1.001, Kind: models.LevelResistance, Strength: 3, Timeframe: "1d"},
		{Price: last.Close * 0.90, Kind: models.LevelSupport, Strength: 3, Timeframe: "1d"},
	}
	nearSupport := []models.Level{
		{Price: last.Close * 1.10, Kind: models.LevelResistance, Strength: 3, Timeframe: "1d"},
		{Price: last.Close * 0.999, Kind: models.LevelSupport, Strength: 3, Timeframe: "1d"},
	}

	cfg := DefaultConfig()
	cfg.Weights = map[string]float64{FactorLevels: 1.0}
	scorer := NewScorer(cfg)

	set := computed(t, s)
	pinned, err := scorer.Score("TEST", set, nearResistance, s)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	roomy, err := scorer.Score("TEST", set, nearSupport, s)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if roomy.Value <= pinned.Value {
		t.Fatalf("near-support score %v should beat near-resistance score %v", roomy.Value, pinned.Value)
	}
}

func TestVerdictBands(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{95, "strong_buy"},
		{70, "buy"},
		{60, "lean_bullish"},
		{50, "neutral"},
		{40, "lean_bearish"},
		{25, "sell"},
		{10, "strong_sell"},
	}
	for _, tc := range cases {
		if got := Verdict(tc.v); got != tc.want {
			t.Fatalf("Verdict(%v)=%q, want %q", tc.v, got, tc.want)
		}
	}
}
