package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	domsvc "MarketPrep/internal/domain/service"
	"MarketPrep/internal/services/indicators"
	"MarketPrep/pkg/cache"
	applogger "MarketPrep/pkg/logger"
)

// ReportAssembler orchestrates the analysis core: it resolves series,
// computes indicators, detects levels, scores, and assembles per-symbol
// reports. Reports are transient; only the cache holds them, keyed by
// symbol, timeframes and a hash of the active configuration so a config
// change never serves stale results.
type ReportAssembler struct {
	bars       *BarsUseCase
	registry   *indicators.Registry
	indCfg     indicators.Config
	detector   domsvc.LevelDetector
	scorer     domsvc.Scorer
	cache      cache.Service
	metrics    domrepo.Metrics
	ttl        time.Duration
	historyN   int
	configHash string
	l          *applogger.Logger
}

type ReportAssemblerOption func(*ReportAssembler)

// WithReportCache enables report caching with the given TTL.
func WithReportCache(c cache.Service, ttl time.Duration) ReportAssemblerOption {
	return func(a *ReportAssembler) {
		a.cache = c
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithHistoryBars sets how many bars per timeframe analysis works on.
func WithHistoryBars(n int) ReportAssemblerOption {
	return func(a *ReportAssembler) {
		if n > 0 {
			a.historyN = n
		}
	}
}

func NewReportAssembler(
	bars *BarsUseCase,
	registry *indicators.Registry,
	indCfg indicators.Config,
	detector domsvc.LevelDetector,
	scorer domsvc.Scorer,
	metrics domrepo.Metrics,
	opts ...ReportAssemblerOption,
) *ReportAssembler {
	a := &ReportAssembler{
		bars:     bars,
		registry: registry,
		indCfg:   indCfg,
		detector: detector,
		scorer:   scorer,
		metrics:  metrics,
		ttl:      60 * time.Second,
		historyN: 300,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.configHash = cache.HashKey(fmt.Sprintf("%+v|%+v", indCfg, scorer))
	return a
}

// SetLogger injects a structured logger.
func (a *ReportAssembler) SetLogger(l *applogger.Logger) { a.l = l }

// Indicators computes the full indicator set and condition labels for one
// symbol and timeframe.
func (a *ReportAssembler) Indicators(ctx context.Context, symbol string, tf domrepo.Timeframe) (models.IndicatorSet, models.SignalSet, error) {
	s, err := a.bars.Series(ctx, symbol, tf, a.historyN)
	if err != nil {
		return nil, models.SignalSet{}, err
	}
	set, err := a.registry.Compute(s, a.indCfg)
	if err != nil {
		return nil, models.SignalSet{}, err
	}
	last, _ := s.Last()
	return set, indicators.Signals(set, a.indCfg, last.Close), nil
}

// Levels detects support/resistance across the requested timeframes.
func (a *ReportAssembler) Levels(ctx context.Context, symbol string, tfs []domrepo.Timeframe) ([]models.Level, error) {
	byTF, missing, err := a.resolveSeries(ctx, symbol, tfs)
	if err != nil {
		return nil, err
	}
	if len(missing) == len(tfs) {
		return nil, fmt.Errorf("%w: no series for %s", models.ErrNotFound, symbol)
	}
	return a.detector.Detect(byTF)
}

// Score computes the composite score for one symbol on one timeframe.
func (a *ReportAssembler) Score(ctx context.Context, symbol string, tf domrepo.Timeframe) (models.Score, error) {
	s, err := a.bars.Series(ctx, symbol, tf, a.historyN)
	if err != nil {
		return models.Score{}, err
	}
	set, err := a.registry.Compute(s, a.indCfg)
	if err != nil {
		return models.Score{}, err
	}
	lvls, err := a.detector.Detect(map[string]*models.Series{string(tf): s})
	if err != nil {
		return models.Score{}, err
	}
	return a.scorer.Score(symbol, set, lvls, s)
}

// Report assembles the full analysis for a symbol across timeframes. When
// some timeframes cannot be resolved the report is returned with
// Incomplete=true and the missing timeframes listed; only a symbol with no
// data at all is an error.
func (a *ReportAssembler) Report(ctx context.Context, symbol string, tfs []domrepo.Timeframe) (*models.Report, error) {
	if len(tfs) == 0 {
		tfs = []domrepo.Timeframe{domrepo.DefaultTimeframe()}
	}

	key := a.reportKey(symbol, tfs)
	if a.cache != nil {
		var cached models.Report
		if err := a.cache.Get(ctx, key, &cached); err == nil {
			a.metrics.RecordCache("hit")
			return &cached, nil
		}
		a.metrics.RecordCache("miss")
	}

	start := time.Now()
	byTF, missing, err := a.resolveSeries(ctx, symbol, tfs)
	if err != nil {
		return nil, err
	}
	if len(byTF) == 0 {
		a.metrics.RecordError("report_no_data")
		return nil, fmt.Errorf("%w: no series for %s", models.ErrNotFound, symbol)
	}

	rep := &models.Report{
		Symbol:      symbol,
		Timeframes:  tfStrings(tfs),
		Indicators:  make(map[string]models.IndicatorSet, len(byTF)),
		Signals:     make(map[string]models.SignalSet, len(byTF)),
		Incomplete:  len(missing) > 0,
		Missing:     missing,
		GeneratedAt: time.Now().UTC(),
	}

	for tf, s := range byTF {
		set, err := a.registry.Compute(s, a.indCfg)
		if err != nil {
			return nil, fmt.Errorf("indicators %s/%s: %w", symbol, tf, err)
		}
		last, _ := s.Last()
		rep.Indicators[tf] = set
		rep.Signals[tf] = indicators.Signals(set, a.indCfg, last.Close)
	}

	lvls, err := a.detector.Detect(byTF)
	if err != nil {
		return nil, fmt.Errorf("levels %s: %w", symbol, err)
	}
	rep.Levels = lvls

	// score on the primary (first requested) timeframe that resolved
	if primary, s := a.primarySeries(tfs, byTF); s != nil {
		sc, err := a.scorer.Score(symbol, rep.Indicators[primary], lvls, s)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", symbol, err)
		}
		rep.Score = &sc
	} else {
		rep.Incomplete = true
	}

	a.metrics.RecordReport(symbol, rep.Incomplete)
	a.metrics.RecordLatency("report_assemble", time.Since(start).Seconds())
	if a.l != nil {
		a.l.Debug("report assembled",
			applogger.String("symbol", symbol),
			applogger.Bool("incomplete", rep.Incomplete),
			applogger.Int("levels", len(rep.Levels)),
		)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, rep, a.ttl); err != nil && a.l != nil {
			a.l.Warn("report cache set failed", applogger.Error(err))
		}
	}
	return rep, nil
}

// InvalidateSymbol drops cached reports for a symbol, e.g. after a scan
// refreshed its series.
func (a *ReportAssembler) InvalidateSymbol(ctx context.Context, symbol string) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.DeleteByPattern(ctx, cache.BuildPattern(cache.GenerateKey("report", symbol)))
}

func (a *ReportAssembler) resolveSeries(ctx context.Context, symbol string, tfs []domrepo.Timeframe) (map[string]*models.Series, []string, error) {
	byTF := make(map[string]*models.Series, len(tfs))
	var missing []string
	for _, tf := range tfs {
		s, err := a.bars.Series(ctx, symbol, tf, a.historyN)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				missing = append(missing, string(tf))
				continue
			}
			return nil, nil, err
		}
		byTF[string(tf)] = s
	}
	return byTF, missing, nil
}

func (a *ReportAssembler) primarySeries(tfs []domrepo.Timeframe, byTF map[string]*models.Series) (string, *models.Series) {
	for _, tf := range tfs {
		if s, ok := byTF[string(tf)]; ok {
			return string(tf), s
		}
	}
	return "", nil
}

func (a *ReportAssembler) reportKey(symbol string, tfs []domrepo.Timeframe) string {
	raw := cache.GenerateKeyWithParams(cache.GenerateKey("report", symbol), tfStrings(tfs), a.configHash)
	return cache.GenerateKey("report", symbol) + ":" + cache.HashKey(raw)
}

func tfStrings(tfs []domrepo.Timeframe) []string {
	out := make([]string, len(tfs))
	for i, tf := range tfs {
		out[i] = string(tf)
	}
	return out
}
