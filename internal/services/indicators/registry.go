package indicators

import (
	"fmt"
	"sort"
	"sync"

	"MarketPrep/internal/domain/models"
)

// Computation is a pure indicator function: it reads a series and a config
// and contributes named value series to the result set. Adding an indicator
// means registering a function, never subclassing anything.
type Computation func(s *models.Series, cfg Config) (models.IndicatorSet, error)

// Registry is a named table of indicator computations.
type Registry struct {
	mu    sync.RWMutex
	table map[string]Computation
}

// NewRegistry returns a registry pre-populated with the built-in
// computations: rsi, macd, bollinger, ma.
func NewRegistry() *Registry {
	r := &Registry{table: make(map[string]Computation)}
	r.Register("rsi", computeRSI)
	r.Register("macd", computeMACD)
	r.Register("bollinger", computeBollinger)
	r.Register("ma", computeMA)
	return r
}

// Register adds or replaces a computation under name.
func (r *Registry) Register(name string, c Computation) {
	r.mu.Lock()
	r.table[name] = c
	r.mu.Unlock()
}

// Names lists registered computations in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.table))
	for name := range r.table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compute runs every registered computation over the series and merges the
// results. Insufficient history never errors: short series just produce NaN
// entries per the edge policy.
func (r *Registry) Compute(s *models.Series, cfg Config) (models.IndicatorSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := make(models.IndicatorSet)
	for _, name := range r.Names() {
		r.mu.RLock()
		c := r.table[name]
		r.mu.RUnlock()
		set, err := c(s, cfg)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", name, err)
		}
		for k, v := range set {
			out[k] = v
		}
	}
	return out, nil
}

func computeRSI(s *models.Series, cfg Config) (models.IndicatorSet, error) {
	name := fmt.Sprintf("RSI%d", cfg.RSIPeriod)
	return models.IndicatorSet{name: RSI(s.Closes(), cfg.RSIPeriod)}, nil
}

func computeMACD(s *models.Series, cfg Config) (models.IndicatorSet, error) {
	res := MACD(s.Closes(), cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	return models.IndicatorSet{
		"MACD":        res.Line,
		"MACD_SIGNAL": res.Signal,
		"MACD_HIST":   res.Histogram,
	}, nil
}

func computeBollinger(s *models.Series, cfg Config) (models.IndicatorSet, error) {
	res := Bollinger(s.Closes(), cfg.BBPeriod, cfg.BBK)
	return models.IndicatorSet{
		"BB_UPPER": res.Upper,
		"BB_MID":   res.Middle,
		"BB_LOWER": res.Lower,
	}, nil
}

func computeMA(s *models.Series, cfg Config) (models.IndicatorSet, error) {
	closes := s.Closes()
	out := make(models.IndicatorSet, len(cfg.SMAPeriods)+len(cfg.EMAPeriods))
	for _, p := range cfg.SMAPeriods {
		out[fmt.Sprintf("SMA%d", p)] = SMA(closes, p)
	}
	for _, p := range cfg.EMAPeriods {
		out[fmt.Sprintf("EMA%d", p)] = EMA(closes, p)
	}
	return out, nil
}
