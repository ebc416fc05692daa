package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	pkgkafka "MarketPrep/pkg/kafka"
)

// CHBarArchive implements BarArchive for ClickHouse.
type CHBarArchive struct {
	db *sql.DB
}

// NewCHBarArchive creates ClickHouse bar archive.
func NewCHBarArchive(db *sql.DB) domrepo.BarArchive {
	return &CHBarArchive{db: db}
}

func (a *CHBarArchive) Store(ctx context.Context, u *models.BarUpdate) error {
	table, err := tableForTF(domrepo.Timeframe(u.Timeframe))
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES (?, ?, ?, ?, ?, ?, ?)", table)
	_, err = a.db.ExecContext(ctx, q,
		u.Bar.Timestamp,
		u.Symbol,
		u.Bar.Open,
		u.Bar.High,
		u.Bar.Low,
		u.Bar.Close,
		u.Bar.Volume,
	)
	return err
}

func (a *CHBarArchive) StoreBatch(ctx context.Context, us []*models.BarUpdate) error {
	if len(us) == 0 {
		return nil
	}
	// Group per table, then insert in chunks of 2000 rows to cut round-trips.
	const chunkSize = 2000
	byTable := make(map[string][]*models.BarUpdate)
	for _, u := range us {
		if u == nil || u.Symbol == "" || u.Bar.Timestamp.IsZero() {
			continue
		}
		table, err := tableForTF(domrepo.Timeframe(u.Timeframe))
		if err != nil {
			return err
		}
		byTable[table] = append(byTable[table], u)
	}
	for table, group := range byTable {
		for start := 0; start < len(group); start += chunkSize {
			end := start + chunkSize
			if end > len(group) {
				end = len(group)
			}
			values := make([]string, 0, end-start)
			args := make([]interface{}, 0, (end-start)*7)
			for _, u := range group[start:end] {
				values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
				args = append(args,
					u.Bar.Timestamp,
					u.Symbol,
					u.Bar.Open,
					u.Bar.High,
					u.Bar.Low,
					u.Bar.Close,
					u.Bar.Volume,
				)
			}
			if len(values) == 0 {
				continue
			}
			q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s", table, strings.Join(values, ","))
			if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *CHBarArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *CHBarArchive) Close() error {
	return nil // Managed by pkg
}

// KafkaBarPublisher implements BarPublisher on top of Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates Kafka bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) domrepo.BarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, u *models.BarUpdate) error {
	return p.producer.Publish(ctx, p.topic, []byte(u.Symbol), barPayload(u))
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, us []*models.BarUpdate) error {
	if len(us) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(us))
	for i, u := range us {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(u.Symbol),
			Value: barPayload(u),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func barPayload(u *models.BarUpdate) map[string]interface{} {
	return map[string]interface{}{
		"symbol": u.Symbol,
		"tf":     u.Timeframe,
		"t":      u.Bar.Timestamp.Unix(),
		"o":      u.Bar.Open,
		"h":      u.Bar.High,
		"l":      u.Bar.Low,
		"c":      u.Bar.Close,
		"v":      u.Bar.Volume,
	}
}

// KafkaScorePublisher implements ScorePublisher on top of Kafka.
type KafkaScorePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaScorePublisher creates Kafka score publisher.
func NewKafkaScorePublisher(producer *pkgkafka.Producer, topic string) domrepo.ScorePublisher {
	return &KafkaScorePublisher{producer: producer, topic: topic}
}

func (p *KafkaScorePublisher) Publish(ctx context.Context, s *models.Score) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), scorePayload(s))
}

func (p *KafkaScorePublisher) PublishBatch(ctx context.Context, ss []*models.Score) error {
	if len(ss) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ss))
	for i, s := range ss {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(s.Symbol),
			Value: scorePayload(s),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaScorePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func scorePayload(s *models.Score) map[string]interface{} {
	return map[string]interface{}{
		"symbol":      s.Symbol,
		"score":       s.Value,
		"verdict":     s.Verdict,
		"factors":     s.Factors,
		"computed_at": s.ComputedAt.Unix(),
	}
}
