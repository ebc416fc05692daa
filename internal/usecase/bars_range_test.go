package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	"MarketPrep/internal/repository"
)

type fakeRangeSource struct {
	fakeSource
	rangeCalls int
}

func (f *fakeRangeSource) FetchRange(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	f.rangeCalls++
	var out []models.Bar
	for _, b := range f.bars {
		if !b.Timestamp.Before(from) && b.Timestamp.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestGetBarsRangeFromSource(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	src := &fakeRangeSource{fakeSource: fakeSource{bars: testBars(120)}}
	uc := NewBarsUseCase(store, src)

	from := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	res, err := uc.GetBarsRange(context.Background(), GetBarsRangeParams{
		Symbol: "AAPL", Timeframe: domrepo.TF1d, From: from, To: to,
	})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if src.rangeCalls != 1 {
		t.Fatalf("expected bounded fetch on the source, calls=%d", src.rangeCalls)
	}
	if res.Count != 21 {
		t.Fatalf("expected 21 bars, got %d", res.Count)
	}
	if res.Bars[0].Timestamp.Before(from) || !res.Bars[res.Count-1].Timestamp.Before(to) {
		t.Fatalf("bars outside window: %v .. %v", res.Bars[0].Timestamp, res.Bars[res.Count-1].Timestamp)
	}
}

func TestGetBarsRangeFallsBackToStore(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(60)); err != nil {
		t.Fatalf("put: %v", err)
	}
	uc := NewBarsUseCase(store, nil) // no range capability

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	res, err := uc.GetBarsRange(context.Background(), GetBarsRangeParams{
		Symbol: "AAPL", Timeframe: domrepo.TF1d, From: from, To: to,
	})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if res.Count != 10 {
		t.Fatalf("expected 10 bars from the store, got %d", res.Count)
	}
}

func TestGetBarsRangeValidation(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	uc := NewBarsUseCase(store, nil)

	at := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := uc.GetBarsRange(context.Background(), GetBarsRangeParams{
		Symbol: "AAPL", Timeframe: domrepo.TF1d, From: at, To: at,
	})
	if !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries for empty range, got %v", err)
	}

	_, err = uc.GetBarsRange(context.Background(), GetBarsRangeParams{
		Symbol: "GHOST", Timeframe: domrepo.TF1d, From: at, To: at.Add(24 * time.Hour),
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown symbol, got %v", err)
	}
}
