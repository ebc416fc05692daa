package models

import "errors"

// Domain error taxonomy. Callers match with errors.Is; boundary layers wrap
// with fmt.Errorf("...: %w", err) for context.
var (
	// ErrNotFound indicates no series was supplied for a (symbol, timeframe).
	ErrNotFound = errors.New("series not found")

	// ErrInvalidSeries indicates input violating the Series invariants
	// (duplicate or non-monotonic timestamps, non-positive prices,
	// negative volume, or too few bars).
	ErrInvalidSeries = errors.New("invalid series")

	// ErrInvalidConfig indicates a malformed indicator or scoring
	// configuration, e.g. weights not summing to 1.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrPartialData marks a degraded, still-usable result: some requested
	// timeframes had no data. Reports carry it alongside Incomplete=true.
	ErrPartialData = errors.New("partial data")
)
