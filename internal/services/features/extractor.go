package features

import (
	"math"

	"MarketPrep/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(bars)-1, or nil if insufficient data.
func ComputeLogReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes the sample standard deviation of the latest
// `window` log returns, scaled by sqrt(barsPerYear) when annualization is
// wanted (pass 1 for per-bar volatility). Returns 0 on insufficient data.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// PriceVolatility returns recent volatility in price units: the per-bar
// realized volatility of the last `window` returns times the last close.
// Falls back to 1% of the last close when the series is too short or flat,
// so proximity normalization never divides by zero.
func PriceVolatility(bars []models.Bar, window int) float64 {
	if len(bars) == 0 {
		return 1
	}
	last := bars[len(bars)-1].Close
	rets := ComputeLogReturns(bars)
	if v := RealizedVolatility(rets, min(window, len(rets)), 1); v > 0 {
		return v * last
	}
	return 0.01 * last
}

// VolumeRatio returns the last bar's volume relative to the average of the
// preceding `window` bars (the dashboard's 20-bar volume gauge). Returns 1
// when there is not enough history.
func VolumeRatio(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window+1 {
		return 1
	}
	sum := 0.0
	for i := len(bars) - 1 - window; i < len(bars)-1; i++ {
		sum += bars[i].Volume
	}
	avg := sum / float64(window)
	if avg <= 0 {
		return 1
	}
	return bars[len(bars)-1].Volume / avg
}

// BarsPerYearForTF returns the approximate number of bars per year for a
// timeframe, for annualized volatility.
func BarsPerYearForTF(tf string) float64 {
	switch tf {
	case "1m":
		return 252 * 390
	case "5m":
		return 252 * 78
	case "15m":
		return 252 * 26
	case "1h":
		return 252 * 6.5
	case "1d":
		return 252
	case "1wk":
		return 52
	default:
		return 252
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
