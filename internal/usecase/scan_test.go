package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	"MarketPrep/internal/repository"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]*models.Score
}

func (p *fakePublisher) Publish(ctx context.Context, s *models.Score) error {
	return p.PublishBatch(ctx, []*models.Score{s})
}

func (p *fakePublisher) PublishBatch(ctx context.Context, ss []*models.Score) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, ss)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestScanScoresAndPublishes(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	for _, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		if err := store.Put(sym, domrepo.TF1d, testBars(120)); err != nil {
			t.Fatalf("put %s: %v", sym, err)
		}
	}
	pub := &fakePublisher{}
	uc := NewScanUseCase(newAssembler(t, store, newFakeMetrics()), pub, nil, newFakeMetrics(), 2)

	res, err := uc.Scan(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, domrepo.TF1d)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Scores) != 3 {
		t.Fatalf("scored %d symbols, want 3", len(res.Scores))
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i].Value > res.Scores[i-1].Value {
			t.Fatalf("scores not sorted descending at %d", i)
		}
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 3 {
		t.Fatalf("expected one published batch of 3, got %v", pub.batches)
	}
}

func TestScanPartialFailure(t *testing.T) {
	store := repository.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}
	uc := NewScanUseCase(newAssembler(t, store, newFakeMetrics()), nil, nil, newFakeMetrics(), 4)

	res, err := uc.Scan(context.Background(), []string{"AAPL", "GHOST"}, domrepo.TF1d)
	if !errors.Is(err, models.ErrPartialData) {
		t.Fatalf("expected ErrPartialData, got %v", err)
	}
	if res == nil || len(res.Scores) != 1 {
		t.Fatalf("expected the surviving symbol to be scored: %+v", res)
	}
	if _, ok := res.Failed["GHOST"]; !ok {
		t.Fatalf("missing failure reason for GHOST: %+v", res.Failed)
	}
}

func TestScanAllFail(t *testing.T) {
	uc := NewScanUseCase(newAssembler(t, repository.NewMemoryBarStore(0), newFakeMetrics()), nil, nil, newFakeMetrics(), 4)
	_, err := uc.Scan(context.Background(), []string{"GHOST", "NOPE"}, domrepo.TF1d)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
