package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"MarketPrep/internal/domain/models"
	domsvc "MarketPrep/internal/domain/service"
	"MarketPrep/internal/services/features"
	"MarketPrep/internal/services/indicators"
)

// Factor names accepted in the weight table.
const (
	FactorRSI    = "rsi"
	FactorMACD   = "macd"
	FactorTrend  = "trend"
	FactorLevels = "levels"
	FactorVolume = "volume"
)

const weightSumTolerance = 1e-9

// Config holds the scorer weights and the indicator names it reads.
type Config struct {
	Weights    map[string]float64 `yaml:"weights"`
	RSIPeriod  int                `yaml:"rsi_period"`
	FastMA     int                `yaml:"fast_ma"`   // e.g. 20
	SlowMA     int                `yaml:"slow_ma"`   // e.g. 50
	VolWindow  int                `yaml:"vol_window"` // bars for volatility/volume normalization
	MaxVolDist float64            `yaml:"max_vol_dist"` // cap on level distance in vol units
}

// DefaultConfig mirrors the dashboard's factor mix.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			FactorRSI:    0.25,
			FactorMACD:   0.20,
			FactorTrend:  0.25,
			FactorLevels: 0.20,
			FactorVolume: 0.10,
		},
		RSIPeriod:  14,
		FastMA:     20,
		SlowMA:     50,
		VolWindow:  20,
		MaxVolDist: 3,
	}
}

// Validate checks the weight table: known factors only, non-negative, and
// summing to 1.0 within tolerance. Fails with models.ErrInvalidConfig.
func (c Config) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("%w: no score weights configured", models.ErrInvalidConfig)
	}
	known := map[string]bool{
		FactorRSI: true, FactorMACD: true, FactorTrend: true,
		FactorLevels: true, FactorVolume: true,
	}
	sum := 0.0
	for name, w := range c.Weights {
		if !known[name] {
			return fmt.Errorf("%w: unknown score factor %q", models.ErrInvalidConfig, name)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative weight for %q", models.ErrInvalidConfig, name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: score weights sum to %v, want 1.0", models.ErrInvalidConfig, sum)
	}
	return nil
}

// Scorer combines latest indicator values and level proximity into a
// composite [0,100] score. Pure function of its inputs; no hidden state.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer { return &Scorer{cfg: cfg} }

var _ domsvc.Scorer = (*Scorer)(nil)

// Score computes the weighted composite for one symbol. Factors whose
// inputs are undefined (short history) contribute their neutral value 50.
func (sc *Scorer) Score(symbol string, set models.IndicatorSet, lvls []models.Level, s *models.Series) (models.Score, error) {
	if err := sc.cfg.Validate(); err != nil {
		return models.Score{}, err
	}
	last, ok := s.Last()
	if !ok {
		return models.Score{}, fmt.Errorf("%w: empty series for %s", models.ErrInvalidSeries, symbol)
	}

	raw := map[string]float64{
		FactorRSI:    sc.rsiFactor(set),
		FactorMACD:   sc.macdFactor(set),
		FactorTrend:  sc.trendFactor(set, last.Close),
		FactorLevels: sc.levelsFactor(lvls, s, last.Close),
		FactorVolume: sc.volumeFactor(s),
	}

	score := models.Score{
		Symbol:     symbol,
		Factors:    make(map[string]float64, len(sc.cfg.Weights)),
		ComputedAt: time.Now().UTC(),
	}
	// deterministic accumulation order
	names := make([]string, 0, len(sc.cfg.Weights))
	for name := range sc.cfg.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		contrib := sc.cfg.Weights[name] * raw[name]
		score.Factors[name] = contrib
		score.Value += contrib
	}
	score.Value = clamp(score.Value, 0, 100)
	score.Verdict = Verdict(score.Value)
	return score, nil
}

// rsiFactor rewards momentum up to the overbought boundary, then fades it;
// deep oversold readings earn a mild mean-reversion bonus.
func (sc *Scorer) rsiFactor(set models.IndicatorSet) float64 {
	rsi, ok := latest(set, fmt.Sprintf("RSI%d", sc.cfg.RSIPeriod))
	if !ok {
		return 50
	}
	switch {
	case rsi > 70:
		return clamp(140-rsi, 0, 100)
	case rsi < 30:
		return clamp(60-rsi, 0, 100)
	default:
		return rsi
	}
}

func (sc *Scorer) macdFactor(set models.IndicatorSet) float64 {
	hist, ok := set["MACD_HIST"]
	if !ok {
		return 50
	}
	switch indicators.MACDCondition(hist) {
	case "bullish":
		return 100
	case "bearish":
		return 0
	default:
		return 50
	}
}

// trendFactor reads the dashboard's trend structure: price above both
// moving averages with fast above slow is the strongest configuration.
func (sc *Scorer) trendFactor(set models.IndicatorSet, price float64) float64 {
	fast, okF := latest(set, fmt.Sprintf("SMA%d", sc.cfg.FastMA))
	slow, okS := latest(set, fmt.Sprintf("SMA%d", sc.cfg.SlowMA))
	switch {
	case okF && okS && price > fast && fast > slow:
		return 100
	case okF && okS && price < fast && fast < slow:
		return 0
	case okF && price > fast:
		return 70
	case okF && price < fast:
		return 30
	default:
		return 50
	}
}

// levelsFactor measures how much room the price has before the nearest
// resistance versus how far it sits above the nearest support, both in
// units of recent volatility and capped at MaxVolDist.
func (sc *Scorer) levelsFactor(lvls []models.Level, s *models.Series, price float64) float64 {
	vol := features.PriceVolatility(s.Bars, sc.cfg.VolWindow)
	ds := math.Inf(1) // distance to nearest support below
	dr := math.Inf(1) // distance to nearest resistance above
	for _, lv := range lvls {
		switch lv.Kind {
		case models.LevelSupport:
			if d := price - lv.Price; d >= 0 && d < ds {
				ds = d
			}
		case models.LevelResistance:
			if d := lv.Price - price; d >= 0 && d < dr {
				dr = d
			}
		}
	}
	maxDist := sc.cfg.MaxVolDist
	if maxDist <= 0 {
		maxDist = 3
	}
	dsU := maxDist
	if !math.IsInf(ds, 1) {
		dsU = math.Min(ds/vol, maxDist)
	}
	drU := maxDist
	if !math.IsInf(dr, 1) {
		drU = math.Min(dr/vol, maxDist)
	}
	if dsU+drU == 0 {
		return 50
	}
	return 100 * drU / (dsU + drU)
}

func (sc *Scorer) volumeFactor(s *models.Series) float64 {
	ratio := features.VolumeRatio(s.Bars, sc.cfg.VolWindow)
	n := s.Len()
	if n < 2 {
		return 50
	}
	dir := 0.0
	if d := s.Bars[n-1].Close - s.Bars[n-2].Close; d > 0 {
		dir = 1
	} else if d < 0 {
		dir = -1
	}
	return clamp(50+dir*25*math.Min(ratio, 2), 0, 100)
}

// Verdict maps a composite score to the dashboard's verdict bands.
func Verdict(v float64) string {
	switch {
	case v >= 80:
		return "strong_buy"
	case v >= 65:
		return "buy"
	case v >= 55:
		return "lean_bullish"
	case v > 45:
		return "neutral"
	case v > 35:
		return "lean_bearish"
	case v > 20:
		return "sell"
	default:
		return "strong_sell"
	}
}

func latest(set models.IndicatorSet, name string) (float64, bool) {
	series, ok := set[name]
	if !ok {
		return 0, false
	}
	return indicators.LastDefined(series)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
