package indicators

// RSI computes the Wilder-smoothed Relative Strength Index over period.
// The first period entries are NaN; from index period on the value is in
// [0,100]. Zero average loss clamps to 100; a flat window (no gains and no
// losses) yields the neutral 50.
func RSI(closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	v := 100.0 - 100.0/(1.0+rs)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}

// RSICondition maps an RSI value to the dashboard's condition label.
func RSICondition(v float64) string {
	switch {
	case !Defined(v):
		return "neutral"
	case v > 70:
		return "overbought"
	case v < 30:
		return "oversold"
	case v > 60:
		return "bullish"
	case v < 40:
		return "bearish"
	default:
		return "neutral"
	}
}
