package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"MarketPrep/internal/domain/repository"
	domsvc "MarketPrep/internal/domain/service"
	"MarketPrep/internal/handler/api"
	mid "MarketPrep/internal/middleware"
	internalrepo "MarketPrep/internal/repository"
	"MarketPrep/internal/service/feed"
	"MarketPrep/internal/services/history"
	"MarketPrep/internal/services/indicators"
	"MarketPrep/internal/services/levels"
	"MarketPrep/internal/services/scoring"
	"MarketPrep/internal/usecase"
	"MarketPrep/pkg/cache"
	pkgch "MarketPrep/pkg/clickhouse"
	"MarketPrep/pkg/config"
	pkgkafka "MarketPrep/pkg/kafka"
	applogger "MarketPrep/pkg/logger"
	"MarketPrep/pkg/metrics"
	"MarketPrep/pkg/queue"
	"MarketPrep/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

var barTableDDL = []string{
	"CREATE DATABASE IF NOT EXISTS marketprep",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_1m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_5m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_15m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_1h (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_1d (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS marketprep.bars_1wk (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
}

// ProvideClickHouseClient creates a ClickHouse client and bar schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, barTableDDL); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarStore creates the in-memory series store.
func ProvideBarStore(l *applogger.Logger) repository.BarStore {
	st := internalrepo.NewMemoryBarStore(0)
	st.SetLogger(l)
	return st
}

// ProvideBarSource selects the historical bar source: the chart HTTP
// endpoint when configured, otherwise the ClickHouse bar tables.
func ProvideBarSource(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) repository.BarSource {
	if cfg.History.BaseURL != "" {
		src := history.NewHTTPBarSource(history.Config{
			BaseURL:      cfg.History.BaseURL,
			Timeout:      cfg.History.Timeout,
			RateCapacity: cfg.History.RateCapacity,
			RatePerSec:   cfg.History.RatePerSec,
		})
		src.SetLogger(l)
		return src
	}
	src := internalrepo.NewCHBarSource(chClient)
	src.SetLogger(l)
	return src
}

// ProvideBarArchive creates ClickHouse bar archive.
func ProvideBarArchive(chClient *pkgch.Client) repository.BarArchive {
	return internalrepo.NewCHBarArchive(chClient.DB())
}

// ProvideBarPublisher creates Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.BarPublisher {
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.BarsTopic)
}

// ProvideScorePublisher creates Kafka score publisher.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ScorePublisher {
	return internalrepo.NewKafkaScorePublisher(producer, cfg.Kafka.ScoresTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers handler for the bars topic.
func ProvideKafkaBarsHandler(archive repository.BarArchive, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, archive, m)
}

// ProvideFeedStream creates the WebSocket bar feed.
func ProvideFeedStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideBarProcessor creates bar processor use case.
func ProvideBarProcessor(
	store repository.BarStore,
	pub repository.BarPublisher,
	archive repository.BarArchive,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		store,
		pub,
		archive,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates bar collector use case.
func ProvideBarCollector(
	stream repository.MarketStream,
	processor *usecase.BarProcessor,
	m repository.Metrics,
) *usecase.BarCollector {
	// Middleware pipeline between WebSocket and the processor
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, processor, m, pipe)
}

// ProvideRedisCache connects to Redis when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache creates the report cache: layered (memory + Redis) when
// Redis is configured, in-memory only otherwise.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideIndicatorsConfig maps YAML indicator settings onto the engine
// config, keeping defaults for unset fields.
func ProvideIndicatorsConfig(cfg *config.Config) indicators.Config {
	c := indicators.DefaultConfig()
	in := cfg.Analysis.Indicators
	if in.RSIPeriod > 0 {
		c.RSIPeriod = in.RSIPeriod
	}
	if in.MACDFast > 0 {
		c.MACDFast = in.MACDFast
	}
	if in.MACDSlow > 0 {
		c.MACDSlow = in.MACDSlow
	}
	if in.MACDSignal > 0 {
		c.MACDSignal = in.MACDSignal
	}
	if in.BBPeriod > 0 {
		c.BBPeriod = in.BBPeriod
	}
	if in.BBK > 0 {
		c.BBK = in.BBK
	}
	if len(in.SMAPeriods) > 0 {
		c.SMAPeriods = in.SMAPeriods
	}
	if len(in.EMAPeriods) > 0 {
		c.EMAPeriods = in.EMAPeriods
	}
	return c
}

// ProvideRegistry creates the indicator registry.
func ProvideRegistry() *indicators.Registry {
	return indicators.NewRegistry()
}

// ProvideDetector creates the support/resistance detector.
func ProvideDetector(cfg *config.Config) domsvc.LevelDetector {
	c := levels.DefaultConfig()
	in := cfg.Analysis.Levels
	if in.PivotWindow > 0 {
		c.PivotWindow = in.PivotWindow
	}
	if in.ClusterTolerance > 0 {
		c.ClusterTolerance = in.ClusterTolerance
	}
	if in.MinTouches > 0 {
		c.MinTouches = in.MinTouches
	}
	if in.MaxLevels > 0 {
		c.MaxLevels = in.MaxLevels
	}
	c.ClassicPivots = in.ClassicPivots
	return levels.NewDetector(c)
}

// ProvideScorer creates the technical scorer.
func ProvideScorer(cfg *config.Config) domsvc.Scorer {
	c := scoring.DefaultConfig()
	in := cfg.Analysis.Score
	if len(in.Weights) > 0 {
		c.Weights = in.Weights
	}
	if in.VolWindow > 0 {
		c.VolWindow = in.VolWindow
	}
	if in.MaxVolDist > 0 {
		c.MaxVolDist = in.MaxVolDist
	}
	ic := cfg.Analysis.Indicators
	if ic.RSIPeriod > 0 {
		c.RSIPeriod = ic.RSIPeriod
	}
	return scoring.NewScorer(c)
}

// ProvideBarsUseCase creates the bars use case.
func ProvideBarsUseCase(store repository.BarStore, source repository.BarSource) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store, source)
}

// ProvideReportAssembler creates the report assembler.
func ProvideReportAssembler(
	bars *usecase.BarsUseCase,
	registry *indicators.Registry,
	indCfg indicators.Config,
	detector domsvc.LevelDetector,
	scorer domsvc.Scorer,
	m repository.Metrics,
	c cache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ReportAssembler {
	opts := []usecase.ReportAssemblerOption{
		usecase.WithReportCache(c, cfg.Analysis.ReportTTL),
	}
	if cfg.History.Bars > 0 {
		opts = append(opts, usecase.WithHistoryBars(cfg.History.Bars))
	}
	a := usecase.NewReportAssembler(bars, registry, indCfg, detector, scorer, m, opts...)
	a.SetLogger(l)
	return a
}

// ProvideScanPublisher creates the publisher-side Redis queue, or nil when
// Redis is disabled (async scans are then rejected).
func ProvideScanPublisher(rc *cache.RedisCache, l *applogger.Logger) queue.QueueService {
	if rc == nil {
		return nil
	}
	return queue.NewRedisPublisher(l, rc.Client())
}

// ProvideScanUseCase creates the scan use case.
func ProvideScanUseCase(
	assembler *usecase.ReportAssembler,
	pub repository.ScorePublisher,
	q queue.QueueService,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	uc := usecase.NewScanUseCase(assembler, pub, q, m, cfg.Scan.Workers)
	uc.SetLogger(l)
	return uc
}

// ProvideScanConsumer creates the worker-side Redis queue with the scan job
// registered, or nil when Redis is disabled.
func ProvideScanConsumer(cfg *config.Config, l *applogger.Logger, rc *cache.RedisCache, scan *usecase.ScanUseCase) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Scan.Workers,
		QueueSize:  cfg.Scan.QueueSize,
		RetryLimit: cfg.Scan.RetryLimit,
		RetryDelay: 5 * time.Second,
	}
	return queue.NewRedisConsumer(l, qcfg, rc.Client(), []queue.Job{usecase.NewScanJob(scan)})
}

// ProvideReportsHandler creates the HTTP handler.
func ProvideReportsHandler(
	l *applogger.Logger,
	bars *usecase.BarsUseCase,
	assembler *usecase.ReportAssembler,
	scan *usecase.ScanUseCase,
) *api.ReportsEchoHandler {
	return api.NewReportsEchoHandler(l, bars, assembler, scan)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	handler *api.ReportsEchoHandler,
	scanConsumer *queue.RedisQueue,
	rc *cache.RedisCache,
) *server.App {
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if scanConsumer != nil {
		app.SetScanQueue(scanConsumer)
	}
	if rc != nil {
		app.SetCacheCloser(rc)
	}
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}
