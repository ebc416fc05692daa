package repository

import (
	"context"
	"time"

	"MarketPrep/internal/domain/models"
)

// BarStore holds the validated, immutable series the analysis core reads.
// Population is the job of ingestion collaborators; the store itself does no
// network or disk I/O.
type BarStore interface {
	// Put validates the series invariants and replaces any prior series for
	// (symbol, tf). Fails with models.ErrInvalidSeries on violation.
	Put(symbol string, tf Timeframe, bars []models.Bar) error

	// Append adds one bar to the series for (symbol, tf), creating it if
	// absent. Fails with models.ErrInvalidSeries when the bar does not
	// extend the series in time or violates price/volume invariants.
	Append(symbol string, tf Timeframe, bar models.Bar) error

	// Get returns the series for (symbol, tf) or models.ErrNotFound.
	Get(symbol string, tf Timeframe) (*models.Series, error)

	// Symbols lists the symbols with at least one stored series.
	Symbols() []string
}

// BarSource provides historical bars from an external collaborator
// (database, REST endpoint). Network and caching concerns live behind it.
type BarSource interface {
	FetchLatestN(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
}

// RangeBarSource is an optional BarSource capability: bounded backfill over
// an explicit [from, to) window.
type RangeBarSource interface {
	FetchRange(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
}

// BarArchive persists ingested bars for later backfill.
type BarArchive interface {
	Store(ctx context.Context, u *models.BarUpdate) error
	StoreBatch(ctx context.Context, us []*models.BarUpdate) error
	Close() error
}
