package indicators

import (
	"fmt"

	"MarketPrep/internal/domain/models"
)

// Signals derives the condition labels from the latest values of a computed
// indicator set. Undefined entries fall back to "neutral".
func Signals(set models.IndicatorSet, cfg Config, lastClose float64) models.SignalSet {
	out := models.SignalSet{RSI: "neutral", MACD: "neutral", Bollinger: "neutral"}

	if rsi, ok := set[fmt.Sprintf("RSI%d", cfg.RSIPeriod)]; ok {
		if v, ok := LastDefined(rsi); ok {
			out.RSI = RSICondition(v)
		}
	}
	if hist, ok := set["MACD_HIST"]; ok {
		out.MACD = MACDCondition(hist)
	}
	upper, okU := set["BB_UPPER"]
	middle, okM := set["BB_MID"]
	lower, okL := set["BB_LOWER"]
	if okU && okM && okL && len(upper) > 0 {
		i := len(upper) - 1
		out.Bollinger = BollingerPosition(lastClose, upper[i], middle[i], lower[i])
	}
	return out
}
