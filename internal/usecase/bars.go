package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
)

// BarsUseCase provides business logic for retrieving bar series. Reads go
// to the in-memory store first; misses fall through to the configured bar
// source and the fetched series is kept for subsequent reads.
type BarsUseCase struct {
	store  domrepo.BarStore
	source domrepo.BarSource
}

func NewBarsUseCase(store domrepo.BarStore, source domrepo.BarSource) *BarsUseCase {
	return &BarsUseCase{store: store, source: source}
}

type GetBarsParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetBarsResult struct {
	Symbol    string
	Timeframe string
	Count     int
	Bars      []models.Bar
}

const defaultBarLimit = 300

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	s, err := uc.Series(ctx, p.Symbol, p.Timeframe, p.Limit)
	if err != nil {
		return nil, err
	}
	bars := s.Bars
	if p.Limit > 0 && len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}
	return &GetBarsResult{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Count:     len(bars),
		Bars:      bars,
	}, nil
}

type GetBarsRangeParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	From      time.Time
	To        time.Time
}

// GetBarsRange returns bars within [from, to). Sources that support bounded
// backfill are asked directly; otherwise the stored series is filtered.
func (uc *BarsUseCase) GetBarsRange(ctx context.Context, p GetBarsRangeParams) (*GetBarsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", models.ErrInvalidSeries)
	}
	if !p.To.After(p.From) {
		return nil, fmt.Errorf("%w: empty range %s..%s", models.ErrInvalidSeries, p.From, p.To)
	}

	if rs, ok := uc.source.(domrepo.RangeBarSource); ok {
		bars, err := rs.FetchRange(ctx, p.Symbol, p.From, p.To, p.Timeframe)
		if err == nil && len(bars) > 0 {
			return &GetBarsResult{
				Symbol:    p.Symbol,
				Timeframe: string(p.Timeframe),
				Count:     len(bars),
				Bars:      bars,
			}, nil
		}
	}

	s, err := uc.store.Get(p.Symbol, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("range %s/%s: %w", p.Symbol, p.Timeframe, err)
	}
	var bars []models.Bar
	for _, b := range s.Bars {
		if !b.Timestamp.Before(p.From) && b.Timestamp.Before(p.To) {
			bars = append(bars, b)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars in range %s/%s", models.ErrNotFound, p.Symbol, p.Timeframe)
	}
	return &GetBarsResult{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Count:     len(bars),
		Bars:      bars,
	}, nil
}

// Series returns the stored series for (symbol, tf), backfilling from the
// bar source on a store miss. Propagates models.ErrNotFound when neither
// the store nor the source has data.
func (uc *BarsUseCase) Series(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) (*models.Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", models.ErrInvalidSeries)
	}
	if n <= 0 {
		n = defaultBarLimit
	}
	if n > 50000 {
		n = 50000
	}

	s, err := uc.store.Get(symbol, tf)
	if err == nil && s.Len() >= n {
		return s, nil
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("get series: %w", err)
	}
	if uc.source == nil {
		if s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %s/%s", models.ErrNotFound, symbol, tf)
	}

	bars, err := uc.source.FetchLatestN(ctx, symbol, n, tf)
	if err != nil {
		// a short but present store entry still beats a failed backfill
		if s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("backfill %s/%s: %w", symbol, tf, err)
	}
	if len(bars) == 0 {
		if s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %s/%s", models.ErrNotFound, symbol, tf)
	}
	if err := uc.store.Put(symbol, tf, bars); err != nil {
		return nil, fmt.Errorf("store backfill: %w", err)
	}
	return uc.store.Get(symbol, tf)
}
