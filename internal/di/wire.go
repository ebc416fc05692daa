//go:build wireinject
// +build wireinject

package di

import (
	"MarketPrep/pkg/config"
	"MarketPrep/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideBarSource,
		ProvideBarArchive,
		ProvideBarPublisher,
		ProvideScorePublisher,
		ProvideFeedStream,

		// Analysis services
		ProvideIndicatorsConfig,
		ProvideRegistry,
		ProvideDetector,
		ProvideScorer,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvideBarsUseCase,
		ProvideReportAssembler,
		ProvideScanPublisher,
		ProvideScanUseCase,
		ProvideScanConsumer,

		// HTTP handler
		ProvideReportsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
