//go:build wireinject
// +build wireinject

package di

import (
	"ARSPull/pkg/config"
	"ARSPull/pkg/server"

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

		// Market data
		ProvideMarketData,
		ProvidePriceStream,
		ProvidePriceBook,
		ProvideTraderDirectory,

		// Stabilizer
		ProvideARSConfig,
		ProvideDrawdownGuard,
		ProvideStabilizer,

		// Repositories
		ProvideSignalStore,
		ProvideSignalPublisher,
		ProvideHandoffQueue,

		// Use cases
		ProvideConsensusBuilder,
		ProvideSignalProcessor,
		ProvidePricePipeline,
		ProvideSignalCollector,
		ProvideKafkaConsumer,
		ProvideKafkaOutcomesHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
