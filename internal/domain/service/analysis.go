package service

import (
	"MarketPrep/internal/domain/models"
)

// LevelDetector clusters price pivots into ranked support/resistance levels
// across one or more timeframes of the same symbol.
type LevelDetector interface {
	Detect(seriesByTF map[string]*models.Series) ([]models.Level, error)
}

// Scorer combines latest indicator values and level proximity into a
// composite score in [0,100].
type Scorer interface {
	Score(symbol string, indicators models.IndicatorSet, levels []models.Level, series *models.Series) (models.Score, error)
}
