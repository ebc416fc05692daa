package repository

import (
	"errors"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
)

func dailyBars(n int, start float64) []models.Bar {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		px := start + float64(i)
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      px, High: px + 1, Low: px - 1, Close: px + 0.5,
			Volume: 1000,
		}
	}
	return bars
}

func TestPutAndGet(t *testing.T) {
	st := NewMemoryBarStore(0)
	bars := dailyBars(30, 100)
	if err := st.Put("AAPL", domrepo.TF1d, bars); err != nil {
		t.Fatalf("put: %v", err)
	}
	s, err := st.Get("AAPL", domrepo.TF1d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Len() != 30 || s.Symbol != "AAPL" || s.Timeframe != "1d" {
		t.Fatalf("unexpected series: %s/%s len=%d", s.Symbol, s.Timeframe, s.Len())
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	st := NewMemoryBarStore(0)
	if _, err := st.Get("MSFT", domrepo.TF1d); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Put("MSFT", domrepo.TF1h, dailyBars(10, 50)); err != nil {
		t.Fatalf("put: %v", err)
	}
	// same symbol, different timeframe is still a miss
	if _, err := st.Get("MSFT", domrepo.TF1d); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other timeframe, got %v", err)
	}
}

func TestPutRejectsInvalidSeries(t *testing.T) {
	st := NewMemoryBarStore(5)

	short := dailyBars(3, 100)
	if err := st.Put("AAPL", domrepo.TF1d, short); !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("short series: expected ErrInvalidSeries, got %v", err)
	}

	outOfOrder := dailyBars(10, 100)
	outOfOrder[4].Timestamp = outOfOrder[3].Timestamp
	if err := st.Put("AAPL", domrepo.TF1d, outOfOrder); !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("duplicate timestamp: expected ErrInvalidSeries, got %v", err)
	}

	badPrice := dailyBars(10, 100)
	badPrice[2].Close = 0
	if err := st.Put("AAPL", domrepo.TF1d, badPrice); !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("zero price: expected ErrInvalidSeries, got %v", err)
	}

	if err := st.Put("AAPL", "2d", dailyBars(10, 100)); !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("bad timeframe: expected ErrInvalidSeries, got %v", err)
	}

	if _, err := st.Get("AAPL", domrepo.TF1d); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("rejected puts must not store anything, got %v", err)
	}
}

func TestAppendExtendsForward(t *testing.T) {
	st := NewMemoryBarStore(0)
	bars := dailyBars(10, 100)
	if err := st.Put("AAPL", domrepo.TF1d, bars); err != nil {
		t.Fatalf("put: %v", err)
	}

	next := models.Bar{
		Timestamp: bars[9].Timestamp.Add(24 * time.Hour),
		Open:      110, High: 111, Low: 109, Close: 110.5, Volume: 900,
	}
	if err := st.Append("AAPL", domrepo.TF1d, next); err != nil {
		t.Fatalf("append: %v", err)
	}
	s, err := st.Get("AAPL", domrepo.TF1d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Len() != 11 {
		t.Fatalf("expected 11 bars, got %d", s.Len())
	}

	stale := next
	stale.Timestamp = bars[5].Timestamp
	if err := st.Append("AAPL", domrepo.TF1d, stale); !errors.Is(err, models.ErrInvalidSeries) {
		t.Fatalf("stale append: expected ErrInvalidSeries, got %v", err)
	}
}

func TestAppendCreatesSeries(t *testing.T) {
	st := NewMemoryBarStore(0)
	b := dailyBars(1, 100)[0]
	if err := st.Append("TSLA", domrepo.TF5m, b); err != nil {
		t.Fatalf("append: %v", err)
	}
	s, err := st.Get("TSLA", domrepo.TF5m)
	if err != nil || s.Len() != 1 {
		t.Fatalf("expected one-bar series, got %v / %v", s, err)
	}
}

func TestAppendDoesNotMutateSnapshots(t *testing.T) {
	st := NewMemoryBarStore(0)
	bars := dailyBars(10, 100)
	if err := st.Put("AAPL", domrepo.TF1d, bars); err != nil {
		t.Fatalf("put: %v", err)
	}
	snap, err := st.Get("AAPL", domrepo.TF1d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	next := models.Bar{
		Timestamp: bars[9].Timestamp.Add(24 * time.Hour),
		Open:      110, High: 111, Low: 109, Close: 110.5, Volume: 900,
	}
	if err := st.Append("AAPL", domrepo.TF1d, next); err != nil {
		t.Fatalf("append: %v", err)
	}
	if snap.Len() != 10 {
		t.Fatalf("snapshot grew after append: len=%d", snap.Len())
	}
}

func TestSymbolsSorted(t *testing.T) {
	st := NewMemoryBarStore(0)
	for _, sym := range []string{"NVDA", "AAPL", "MSFT"} {
		if err := st.Put(sym, domrepo.TF1d, dailyBars(5, 100)); err != nil {
			t.Fatalf("put %s: %v", sym, err)
		}
	}
	// two timeframes for one symbol must not duplicate it
	if err := st.Put("AAPL", domrepo.TF1h, dailyBars(5, 100)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got := st.Symbols()
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("symbols %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbols %v, want %v", got, want)
		}
	}
}
