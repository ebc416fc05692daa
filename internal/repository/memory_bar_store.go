package repository

import (
	"fmt"
	"sort"
	"sync"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	applogger "MarketPrep/pkg/logger"
)

// MemoryBarStore implements BarStore with an in-process map guarded by an
// RWMutex. Stored series are never handed out for mutation: Get returns a
// Series whose bar slice callers must treat as read-only, and Put copies
// its input so later caller-side changes cannot corrupt the store.
type MemoryBarStore struct {
	mu      sync.RWMutex
	series  map[storeKey]*models.Series
	minBars int
	l       *applogger.Logger
}

type storeKey struct {
	symbol string
	tf     domrepo.Timeframe
}

// NewMemoryBarStore creates an empty store. minBars is the minimum series
// length accepted by Put (0 disables the check); it should cover the
// longest configured indicator lookback.
func NewMemoryBarStore(minBars int) *MemoryBarStore {
	return &MemoryBarStore{series: make(map[storeKey]*models.Series), minBars: minBars}
}

// SetLogger injects a structured logger.
func (st *MemoryBarStore) SetLogger(l *applogger.Logger) { st.l = l }

var _ domrepo.BarStore = (*MemoryBarStore)(nil)

// Put validates and stores a full series, replacing any prior series for
// the key.
func (st *MemoryBarStore) Put(symbol string, tf domrepo.Timeframe, bars []models.Bar) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", models.ErrInvalidSeries)
	}
	if !domrepo.IsValidTimeframe(tf) {
		return fmt.Errorf("%w: unsupported timeframe %q", models.ErrInvalidSeries, tf)
	}
	if len(bars) < st.minBars {
		return fmt.Errorf("%w: %s/%s has %d bars, need at least %d", models.ErrInvalidSeries, symbol, tf, len(bars), st.minBars)
	}
	for i, b := range bars {
		if err := validateBar(b); err != nil {
			return fmt.Errorf("%w: %s/%s bar %d: %v", models.ErrInvalidSeries, symbol, tf, i, err)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("%w: %s/%s bar %d: timestamp %v not after %v", models.ErrInvalidSeries, symbol, tf, i, b.Timestamp, bars[i-1].Timestamp)
		}
	}

	copied := make([]models.Bar, len(bars))
	copy(copied, bars)

	st.mu.Lock()
	st.series[storeKey{symbol, tf}] = &models.Series{Symbol: symbol, Timeframe: string(tf), Bars: copied}
	st.mu.Unlock()

	if st.l != nil {
		st.l.Debug("series stored",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("bars", len(copied)),
		)
	}
	return nil
}

// Append adds one bar, creating the series when absent. The bar must extend
// the series strictly forward in time.
func (st *MemoryBarStore) Append(symbol string, tf domrepo.Timeframe, bar models.Bar) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", models.ErrInvalidSeries)
	}
	if !domrepo.IsValidTimeframe(tf) {
		return fmt.Errorf("%w: unsupported timeframe %q", models.ErrInvalidSeries, tf)
	}
	if err := validateBar(bar); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", models.ErrInvalidSeries, symbol, tf, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	key := storeKey{symbol, tf}
	cur, ok := st.series[key]
	if !ok {
		st.series[key] = &models.Series{Symbol: symbol, Timeframe: string(tf), Bars: []models.Bar{bar}}
		return nil
	}
	if last := cur.Bars[len(cur.Bars)-1]; !last.Timestamp.Before(bar.Timestamp) {
		return fmt.Errorf("%w: %s/%s: bar at %v does not extend series ending %v", models.ErrInvalidSeries, symbol, tf, bar.Timestamp, last.Timestamp)
	}
	// copy-on-append keeps previously returned series snapshots stable
	next := make([]models.Bar, len(cur.Bars)+1)
	copy(next, cur.Bars)
	next[len(cur.Bars)] = bar
	st.series[key] = &models.Series{Symbol: symbol, Timeframe: string(tf), Bars: next}
	return nil
}

// Get returns the stored series or models.ErrNotFound.
func (st *MemoryBarStore) Get(symbol string, tf domrepo.Timeframe) (*models.Series, error) {
	st.mu.RLock()
	s, ok := st.series[storeKey{symbol, tf}]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrNotFound, symbol, tf)
	}
	return s, nil
}

// Symbols lists symbols with at least one stored series, sorted.
func (st *MemoryBarStore) Symbols() []string {
	st.mu.RLock()
	seen := make(map[string]bool, len(st.series))
	for k := range st.series {
		seen[k.symbol] = true
	}
	st.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func validateBar(b models.Bar) error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("zero timestamp")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}
