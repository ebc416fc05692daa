package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketPrep/internal/domain/models"
	drepo "MarketPrep/internal/domain/repository"
)

// BarProcessor applies incoming bar updates to the in-memory store and
// routes them to the configured archival backend.
type BarProcessor struct {
	store   drepo.BarStore
	pub     drepo.BarPublisher
	archive drepo.BarArchive
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	store drepo.BarStore,
	pub drepo.BarPublisher,
	archive drepo.BarArchive,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *BarProcessor {
	return &BarProcessor{
		store:   store,
		pub:     pub,
		archive: archive,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process applies a single bar update and routes it to the configured
// backend. Out-of-order updates are dropped, not treated as failures: live
// feeds replay the open bucket on reconnect.
func (p *BarProcessor) Process(ctx context.Context, u *models.BarUpdate) error {
	if u == nil {
		return fmt.Errorf("bar update is nil")
	}

	start := time.Now()
	if err := p.store.Append(u.Symbol, drepo.Timeframe(u.Timeframe), u.Bar); err != nil {
		if errors.Is(err, models.ErrInvalidSeries) {
			p.metrics.RecordError("stale_bar")
			return nil
		}
		p.metrics.RecordError("store_append")
		return fmt.Errorf("append bar: %w", err)
	}

	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, u)
	case "clickhouse":
		err = p.archive.Store(ctx, u)
	case "memory":
		// in-memory only, nothing downstream
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process bar: %w", err)
	}

	p.metrics.RecordBarIngested(p.backend, u.Symbol)
	p.metrics.RecordLastClose(u.Symbol, u.Bar.Close)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch applies multiple bar updates in a batch.
func (p *BarProcessor) ProcessBatch(ctx context.Context, us []*models.BarUpdate) error {
	if len(us) == 0 {
		return nil
	}

	start := time.Now()
	kept := make([]*models.BarUpdate, 0, len(us))
	for _, u := range us {
		if u == nil {
			continue
		}
		if err := p.store.Append(u.Symbol, drepo.Timeframe(u.Timeframe), u.Bar); err != nil {
			if errors.Is(err, models.ErrInvalidSeries) {
				p.metrics.RecordError("stale_bar")
				continue
			}
			p.metrics.RecordError("store_append")
			return fmt.Errorf("append bar: %w", err)
		}
		kept = append(kept, u)
	}
	if len(kept) == 0 {
		return nil
	}

	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, kept)
	case "clickhouse":
		err = p.archive.StoreBatch(ctx, kept)
	case "memory":
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, u := range kept {
		p.metrics.RecordBarIngested(p.backend, u.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
