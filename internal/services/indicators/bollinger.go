package indicators

import "math"

// BollingerResult carries the upper band, the middle SMA, and the lower
// band, each aligned with the source series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes Bollinger Bands: SMA(period) +/- k standard deviations
// of the close over the same window (sample variance, matching pandas
// rolling std). Entries before index period-1 are NaN. For every computable
// index Upper >= Middle >= Lower.
func Bollinger(closes []float64, period int, k float64) BollingerResult {
	n := len(closes)
	res := BollingerResult{
		Upper:  undefinedSeries(n),
		Middle: SMA(closes, period),
		Lower:  undefinedSeries(n),
	}
	if period <= 1 || k <= 0 || n < period {
		return res
	}
	for i := period - 1; i < n; i++ {
		mean := res.Middle[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(period-1))
		res.Upper[i] = mean + k*std
		res.Lower[i] = mean - k*std
	}
	return res
}

// BollingerPosition labels where the current price sits relative to the
// bands: above_upper, upper_half, lower_half, or below_lower.
func BollingerPosition(price, upper, middle, lower float64) string {
	if !Defined(upper) || !Defined(middle) || !Defined(lower) {
		return "neutral"
	}
	switch {
	case price > upper:
		return "above_upper"
	case price < lower:
		return "below_lower"
	case price > middle:
		return "upper_half"
	default:
		return "lower_half"
	}
}
