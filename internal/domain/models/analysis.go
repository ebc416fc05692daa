package models

import (
	"encoding/json"
	"math"
	"time"
)

// IndicatorSet maps an indicator name (e.g. "RSI14", "MACD", "BB_UPPER") to
// a numeric series aligned index-for-index with its source Series. Entries
// where the lookback window is unsatisfied are NaN, so consumers can tell
// "not yet computable" from "computed as zero".
type IndicatorSet map[string][]float64

// MarshalJSON encodes NaN entries as null; encoding/json rejects NaN and a
// set always carries it for the leading lookback window.
func (s IndicatorSet) MarshalJSON() ([]byte, error) {
	out := make(map[string][]*float64, len(s))
	for name, vals := range s {
		ptrs := make([]*float64, len(vals))
		for i, v := range vals {
			if !math.IsNaN(v) {
				v := v
				ptrs[i] = &v
			}
		}
		out[name] = ptrs
	}
	return json.Marshal(out)
}

// UnmarshalJSON maps null entries back to NaN so cached sets keep the
// undefined-lookback convention.
func (s *IndicatorSet) UnmarshalJSON(b []byte) error {
	var in map[string][]*float64
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	set := make(IndicatorSet, len(in))
	for name, ptrs := range in {
		vals := make([]float64, len(ptrs))
		for i, p := range ptrs {
			if p == nil {
				vals[i] = math.NaN()
			} else {
				vals[i] = *p
			}
		}
		set[name] = vals
	}
	*s = set
	return nil
}

// LevelKind classifies a price level relative to the current price.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a clustered support/resistance price level. Levels are derived
// values: a new detection run replaces the prior result set.
type Level struct {
	Price     float64   `json:"price"`
	Kind      LevelKind `json:"kind"`
	Strength  int       `json:"strength"` // count of confirming touches
	Timeframe string    `json:"timeframe"`
	LastTouch time.Time `json:"last_touch"` // most recent confirming pivot
}

// Score is a composite technical score in [0,100] with the weighted
// contribution of each factor. It is valid only for the series snapshot it
// was computed from.
type Score struct {
	Symbol     string             `json:"symbol"`
	Value      float64            `json:"value"`
	Factors    map[string]float64 `json:"factors"`
	Verdict    string             `json:"verdict"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Report is the per-symbol analysis assembled for the presentation layer.
// Transient: assembled per request, never persisted by the core.
type Report struct {
	Symbol      string                  `json:"symbol"`
	Timeframes  []string                `json:"timeframes"`
	Indicators  map[string]IndicatorSet `json:"indicators"` // keyed by timeframe
	Signals     map[string]SignalSet    `json:"signals"`    // keyed by timeframe
	Levels      []Level                 `json:"levels"`
	Score       *Score                  `json:"score,omitempty"`
	Incomplete  bool                    `json:"incomplete"`
	Missing     []string                `json:"missing,omitempty"` // timeframes without data
	GeneratedAt time.Time               `json:"generated_at"`
}

// SignalSet carries the human-readable condition labels derived from the
// latest indicator values (overbought/oversold, MACD direction, Bollinger
// position).
type SignalSet struct {
	RSI       string `json:"rsi"`
	MACD      string `json:"macd"`
	Bollinger string `json:"bollinger"`
}
