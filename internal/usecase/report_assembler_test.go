package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	"MarketPrep/internal/repository"
	"MarketPrep/internal/services/indicators"
	"MarketPrep/internal/services/levels"
	"MarketPrep/internal/services/scoring"
	"MarketPrep/pkg/cache"
)

type fakeMetrics struct {
	mu        sync.Mutex
	cacheHits int
	reports   int
	partial   int
	errs      map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errs: make(map[string]int)} }

func (m *fakeMetrics) RecordBarIngested(source, symbol string) {}
func (m *fakeMetrics) RecordReport(symbol string, partial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports++
	if partial {
		m.partial++
	}
}
func (m *fakeMetrics) RecordCache(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outcome == "hit" {
		m.cacheHits++
	}
}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}
func (m *fakeMetrics) RecordLastClose(symbol string, price float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64)     {}

var _ domrepo.Metrics = (*fakeMetrics)(nil)

func testBars(n int) []models.Bar {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		if i%2 == 0 {
			price += 1.5
		} else {
			price -= 0.5
		}
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price - 0.5, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000,
		}
	}
	return bars
}

func newAssembler(t *testing.T, store domrepo.BarStore, m domrepo.Metrics, opts ...ReportAssemblerOption) *ReportAssembler {
	t.Helper()
	return NewReportAssembler(
		NewBarsUseCase(store, nil),
		indicators.NewRegistry(),
		indicators.DefaultConfig(),
		levels.NewDetector(levels.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultConfig()),
		m,
		opts...,
	)
}

func TestReportComplete(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}
	a := newAssembler(t, store, newFakeMetrics())

	rep, err := a.Report(context.Background(), "AAPL", []domrepo.Timeframe{domrepo.TF1d})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Incomplete {
		t.Fatalf("report marked incomplete: missing=%v", rep.Missing)
	}
	if rep.Score == nil {
		t.Fatalf("report has no score")
	}
	if _, ok := rep.Indicators["1d"]; !ok {
		t.Fatalf("report missing 1d indicators")
	}
	if _, ok := rep.Signals["1d"]; !ok {
		t.Fatalf("report missing 1d signals")
	}
}

func TestReportPartial(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}
	m := newFakeMetrics()
	a := newAssembler(t, store, m)

	rep, err := a.Report(context.Background(), "AAPL", []domrepo.Timeframe{domrepo.TF1d, domrepo.TF1h})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !rep.Incomplete {
		t.Fatalf("expected incomplete report")
	}
	if len(rep.Missing) != 1 || rep.Missing[0] != "1h" {
		t.Fatalf("missing = %v, want [1h]", rep.Missing)
	}
	if rep.Score == nil {
		t.Fatalf("partial report should still score the resolved timeframe")
	}
	if m.partial != 1 {
		t.Fatalf("partial reports recorded = %d, want 1", m.partial)
	}
}

func TestReportAllMissing(t *testing.T) {
	a := newAssembler(t, repository.NewMemoryBarStore(0), newFakeMetrics())
	_, err := a.Report(context.Background(), "GHOST", []domrepo.Timeframe{domrepo.TF1d})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReportCaching(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}
	m := newFakeMetrics()
	mc := cache.NewMemoryCache()
	defer mc.Close()
	a := newAssembler(t, store, m, WithReportCache(mc, time.Minute))

	first, err := a.Report(context.Background(), "AAPL", []domrepo.Timeframe{domrepo.TF1d})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	second, err := a.Report(context.Background(), "AAPL", []domrepo.Timeframe{domrepo.TF1d})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if m.cacheHits != 1 {
		t.Fatalf("cache hits = %d, want 1", m.cacheHits)
	}
	if !first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Fatalf("cached report should keep the original timestamp")
	}
	if m.reports != 1 {
		t.Fatalf("assembled %d times, want 1", m.reports)
	}
}

func TestIndicatorsAndScoreOps(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}
	a := newAssembler(t, store, newFakeMetrics())

	set, sig, err := a.Indicators(context.Background(), "AAPL", domrepo.TF1d)
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if _, ok := set["RSI14"]; !ok {
		t.Fatalf("indicator set missing RSI14")
	}
	if sig.RSI == "" || sig.MACD == "" || sig.Bollinger == "" {
		t.Fatalf("incomplete signal set: %+v", sig)
	}

	sc, err := a.Score(context.Background(), "AAPL", domrepo.TF1d)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if sc.Value < 0 || sc.Value > 100 || sc.Verdict == "" {
		t.Fatalf("bad score: %+v", sc)
	}
}

type fakeSource struct {
	mu      sync.Mutex
	fetches int
	bars    []models.Bar
}

func (f *fakeSource) FetchLatestN(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if len(f.bars) == 0 {
		return nil, models.ErrNotFound
	}
	return f.bars, nil
}

func TestBarsBackfillFromSource(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	src := &fakeSource{bars: testBars(120)}
	uc := NewBarsUseCase(store, src)

	res, err := uc.GetBars(context.Background(), GetBarsParams{Symbol: "AAPL", Timeframe: domrepo.TF1d, Limit: 50})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 50 {
		t.Fatalf("count = %d, want 50", res.Count)
	}
	// second read must come from the store
	if _, err := uc.GetBars(context.Background(), GetBarsParams{Symbol: "AAPL", Timeframe: domrepo.TF1d, Limit: 50}); err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if src.fetches != 1 {
		t.Fatalf("source fetched %d times, want 1", src.fetches)
	}
}
