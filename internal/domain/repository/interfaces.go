package repository

import (
	"context"

	"MarketPrep/internal/domain/models"
)

// MarketStream is a live bar feed (WebSocket or similar).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.BarUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarPublisher pushes ingested bars to the message bus for archival.
type BarPublisher interface {
	Publish(ctx context.Context, u *models.BarUpdate) error
	PublishBatch(ctx context.Context, us []*models.BarUpdate) error
	Close() error
}

// ScorePublisher pushes computed scores to downstream consumers.
type ScorePublisher interface {
	Publish(ctx context.Context, s *models.Score) error
	PublishBatch(ctx context.Context, ss []*models.Score) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordBarIngested(source, symbol string)
	RecordReport(symbol string, partial bool)
	RecordCache(outcome string) // "hit" | "miss"
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
