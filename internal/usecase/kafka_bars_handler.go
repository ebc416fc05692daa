package usecase

import (
	"context"
	"encoding/json"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	pkgkafka "MarketPrep/pkg/kafka"
)

// KafkaBarsHandler consumes bar messages from Kafka and writes them to the
// archive.
type KafkaBarsHandler struct {
	topic   string
	archive domrepo.BarArchive
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, archive domrepo.BarArchive, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, archive: archive, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, t, o, h, l, c, v}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		TF     string  `json:"tf"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from bar time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.archive.Store(ctx, &models.BarUpdate{
		Symbol:    m.Symbol,
		Timeframe: m.TF,
		Bar: models.Bar{
			Timestamp: time.Unix(m.T, 0).UTC(),
			Open:      m.O, High: m.H, Low: m.L, Close: m.C,
			Volume: m.V,
		},
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarIngested("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
