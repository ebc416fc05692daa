package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	applogger "MarketPrep/pkg/logger"
	"MarketPrep/pkg/queue"
)

// ScanUseCase scores a batch of symbols concurrently and publishes the
// results. Scans can run inline (API request) or via the Redis queue.
type ScanUseCase struct {
	assembler *ReportAssembler
	publisher domrepo.ScorePublisher
	queue     queue.QueueService
	metrics   domrepo.Metrics
	workers   int
	l         *applogger.Logger
}

func NewScanUseCase(
	assembler *ReportAssembler,
	publisher domrepo.ScorePublisher,
	q queue.QueueService,
	metrics domrepo.Metrics,
	workers int,
) *ScanUseCase {
	if workers <= 0 {
		workers = 8
	}
	return &ScanUseCase{
		assembler: assembler,
		publisher: publisher,
		queue:     q,
		metrics:   metrics,
		workers:   workers,
	}
}

// SetLogger injects a structured logger.
func (uc *ScanUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

type ScanResult struct {
	Scores []models.Score    `json:"scores"`
	Failed map[string]string `json:"failed,omitempty"` // symbol -> reason
}

// Scan scores all symbols with a bounded worker pool. Symbols that fail
// individually do not abort the batch: the result carries their reasons and
// the error wraps models.ErrPartialData. All symbols failing is an error
// with no result.
func (uc *ScanUseCase) Scan(ctx context.Context, symbols []string, tf domrepo.Timeframe) (*ScanResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", models.ErrInvalidConfig)
	}
	start := time.Now()

	type outcome struct {
		symbol string
		score  models.Score
		err    error
	}
	jobs := make(chan string)
	results := make(chan outcome, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < uc.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				sc, err := uc.assembler.Score(ctx, sym, tf)
				results <- outcome{symbol: sym, score: sc, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sym := range symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- sym:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	res := &ScanResult{Failed: make(map[string]string)}
	for o := range results {
		if o.err != nil {
			res.Failed[o.symbol] = o.err.Error()
			uc.metrics.RecordError("scan_symbol")
			continue
		}
		res.Scores = append(res.Scores, o.score)
	}
	sort.Slice(res.Scores, func(i, j int) bool {
		if res.Scores[i].Value != res.Scores[j].Value {
			return res.Scores[i].Value > res.Scores[j].Value
		}
		return res.Scores[i].Symbol < res.Scores[j].Symbol
	})

	if len(res.Scores) == 0 {
		return nil, fmt.Errorf("%w: all %d symbols failed", models.ErrNotFound, len(symbols))
	}

	if uc.publisher != nil {
		batch := make([]*models.Score, len(res.Scores))
		for i := range res.Scores {
			batch[i] = &res.Scores[i]
		}
		if err := uc.publisher.PublishBatch(ctx, batch); err != nil {
			uc.metrics.RecordError("scan_publish")
			if uc.l != nil {
				uc.l.Error("scan publish failed", applogger.Error(err))
			}
		}
	}

	uc.metrics.RecordLatency("scan", time.Since(start).Seconds())
	if uc.l != nil {
		uc.l.Info("scan finished",
			applogger.Int("scored", len(res.Scores)),
			applogger.Int("failed", len(res.Failed)),
			applogger.String("tf", string(tf)),
		)
	}

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d symbols failed", models.ErrPartialData, len(res.Failed), len(symbols))
	}
	return res, nil
}

// ScanPayload is the queued scan request.
type ScanPayload struct {
	Symbols []string `json:"symbols"`
	TF      string   `json:"tf"`
}

// Enqueue schedules a scan on the Redis queue.
func (uc *ScanUseCase) Enqueue(ctx context.Context, symbols []string, tf domrepo.Timeframe) error {
	if uc.queue == nil {
		return fmt.Errorf("scan queue not configured")
	}
	return uc.queue.PublishMessage(ctx, ScanJobType, ScanPayload{Symbols: symbols, TF: string(tf)})
}

const ScanJobType = "scan_request"

// ScanJob processes queued scan requests.
type ScanJob struct {
	uc *ScanUseCase
}

func NewScanJob(uc *ScanUseCase) *ScanJob { return &ScanJob{uc: uc} }

func (j *ScanJob) Name() string { return "scan" }
func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScanPayload](payload)
	if err != nil {
		return fmt.Errorf("scan payload: %w", err)
	}
	tf := domrepo.NormalizeTimeframe(p.TF)
	_, err = j.uc.Scan(ctx, p.Symbols, tf)
	return err
}

var _ queue.Job = (*ScanJob)(nil)
