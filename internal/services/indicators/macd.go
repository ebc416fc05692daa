package indicators

// MACDResult carries the MACD line, its signal line, and the histogram
// (line minus signal), each aligned with the source series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the Moving Average Convergence Divergence of closes.
// The line is EMA(fast) - EMA(slow), defined from index slow-1; the signal
// is an EMA(signalPeriod) of the line, so the signal and histogram are
// defined from index slow+signalPeriod-2.
func MACD(closes []float64, fast, slow, signalPeriod int) MACDResult {
	n := len(closes)
	res := MACDResult{
		Line:      undefinedSeries(n),
		Signal:    undefinedSeries(n),
		Histogram: undefinedSeries(n),
	}
	if fast <= 0 || slow <= fast || signalPeriod <= 0 || n < slow {
		return res
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := slow - 1; i < n; i++ {
		res.Line[i] = emaFast[i] - emaSlow[i]
	}

	defined := n - (slow - 1)
	if defined < signalPeriod {
		return res
	}
	sig := EMA(res.Line[slow-1:], signalPeriod)
	for i, v := range sig {
		idx := slow - 1 + i
		if Defined(v) {
			res.Signal[idx] = v
			res.Histogram[idx] = res.Line[idx] - v
		}
	}
	return res
}

// MACDCondition labels momentum from the last two histogram values:
// expanding positive histogram is bullish, contracting negative bearish.
func MACDCondition(hist []float64) string {
	if len(hist) < 2 {
		return "neutral"
	}
	last, prev := hist[len(hist)-1], hist[len(hist)-2]
	if !Defined(last) || !Defined(prev) {
		return "neutral"
	}
	switch {
	case last > 0 && last > prev:
		return "bullish"
	case last < 0 && last < prev:
		return "bearish"
	default:
		return "neutral"
	}
}
