package indicators

import "math"

// SMA computes the simple moving average of values over period. The first
// period-1 entries are NaN.
func SMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded with the SMA of the first period values. Entries before index
// period-1 are NaN.
func EMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// undefinedSeries allocates a series of NaN, the "not yet computable"
// marker every indicator uses for unsatisfied lookback windows.
func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether an indicator entry carries a computed value.
func Defined(v float64) bool { return !math.IsNaN(v) }

// LastDefined returns the most recent computed entry of a series, or
// (0, false) when every entry is undefined.
func LastDefined(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if Defined(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}
