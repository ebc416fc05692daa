package indicators

import (
	"fmt"

	"MarketPrep/internal/domain/models"
)

// Config holds the lookback parameters for the indicator engine. Defaults
// match the dashboard's reference behavior: RSI(14), MACD(12,26,9),
// Bollinger(20, 2.0), SMA 20/50, EMA 12/26.
type Config struct {
	RSIPeriod  int     `yaml:"rsi_period"`
	MACDFast   int     `yaml:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal"`
	BBPeriod   int     `yaml:"bb_period"`
	BBK        float64 `yaml:"bb_k"`
	SMAPeriods []int   `yaml:"sma_periods"`
	EMAPeriods []int   `yaml:"ema_periods"`
}

// DefaultConfig returns the reference parameter set.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBK:        2.0,
		SMAPeriods: []int{20, 50},
		EMAPeriods: []int{12, 26},
	}
}

// Validate checks the configuration, failing with models.ErrInvalidConfig.
func (c Config) Validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("%w: rsi period must be positive, got %d", models.ErrInvalidConfig, c.RSIPeriod)
	}
	if c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 {
		return fmt.Errorf("%w: macd periods must be positive", models.ErrInvalidConfig)
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("%w: macd fast period %d must be below slow period %d", models.ErrInvalidConfig, c.MACDFast, c.MACDSlow)
	}
	if c.BBPeriod <= 1 {
		return fmt.Errorf("%w: bollinger period must be above 1, got %d", models.ErrInvalidConfig, c.BBPeriod)
	}
	if c.BBK <= 0 {
		return fmt.Errorf("%w: bollinger k must be positive, got %v", models.ErrInvalidConfig, c.BBK)
	}
	for _, p := range append(append([]int{}, c.SMAPeriods...), c.EMAPeriods...) {
		if p <= 0 {
			return fmt.Errorf("%w: moving average period must be positive, got %d", models.ErrInvalidConfig, p)
		}
	}
	return nil
}
