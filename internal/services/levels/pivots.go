package levels

import (
	"time"

	"MarketPrep/internal/domain/models"
)

// Pivot is a local price extreme relative to its neighbors.
type Pivot struct {
	Price float64
	Time  time.Time
	Kind  models.LevelKind
}

// FindPivots locates swing highs and lows: a bar is a pivot high when its
// high is the maximum within a centered window of w bars on each side
// (pivot low symmetric on lows). The pivot's kind depends on which side of
// the reference price it sits — a swing high under the current price acts
// as prior resistance turned support, matching the dashboard behavior.
func FindPivots(s *models.Series, w int, refPrice float64) []Pivot {
	if w <= 0 || s.Len() < 2*w+1 {
		return nil
	}
	out := make([]Pivot, 0, 8)
	for i := w; i < s.Len()-w; i++ {
		if isWindowMax(s.Bars, i, w) {
			out = append(out, Pivot{
				Price: s.Bars[i].High,
				Time:  s.Bars[i].Timestamp,
				Kind:  kindFor(s.Bars[i].High, refPrice),
			})
		}
		if isWindowMin(s.Bars, i, w) {
			out = append(out, Pivot{
				Price: s.Bars[i].Low,
				Time:  s.Bars[i].Timestamp,
				Kind:  kindFor(s.Bars[i].Low, refPrice),
			})
		}
	}
	return out
}

// ClassicPivots derives the classic floor-trader pivot set (R2, R1, S1, S2)
// from the next-to-last bar. Each level enters clustering as a single-touch
// candidate.
func ClassicPivots(s *models.Series, refPrice float64) []Pivot {
	if s.Len() < 2 {
		return nil
	}
	prev := s.Bars[s.Len()-2]
	p := (prev.High + prev.Low + prev.Close) / 3
	r1 := 2*p - prev.Low
	s1 := 2*p - prev.High
	r2 := p + (prev.High - prev.Low)
	s2 := p - (prev.High - prev.Low)

	out := make([]Pivot, 0, 4)
	for _, price := range []float64{r2, r1, s1, s2} {
		if price <= 0 {
			continue
		}
		out = append(out, Pivot{Price: price, Time: prev.Timestamp, Kind: kindFor(price, refPrice)})
	}
	return out
}

func kindFor(price, refPrice float64) models.LevelKind {
	if price > refPrice {
		return models.LevelResistance
	}
	return models.LevelSupport
}

func isWindowMax(bars []models.Bar, i, w int) bool {
	for j := i - w; j <= i+w; j++ {
		if j != i && bars[j].High >= bars[i].High {
			return false
		}
	}
	return true
}

func isWindowMin(bars []models.Bar, i, w int) bool {
	for j := i - w; j <= i+w; j++ {
		if j != i && bars[j].Low <= bars[i].Low {
			return false
		}
	}
	return true
}
