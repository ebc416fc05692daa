package models

import "time"

// Bar represents one OHLCV interval of price data. Bars are value types and
// are never mutated after construction.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Series is an ordered sequence of bars for one (symbol, timeframe) pair.
// Invariants (enforced by the bar store on Put): timestamps strictly
// increasing, all prices > 0, volume >= 0. Downstream components treat a
// Series as read-only.
type Series struct {
	Symbol    string
	Timeframe string
	Bars      []Bar
}

// Len returns the number of bars in the series.
func (s *Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar and true, or a zero bar and false when
// the series is empty.
func (s *Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close prices in bar order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// BarUpdate is a single bar arriving from an ingestion source (feed or
// message bus), addressed to one (symbol, timeframe) series.
type BarUpdate struct {
	Symbol    string
	Timeframe string
	Bar       Bar
}

// Volumes extracts the volumes in bar order.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}
