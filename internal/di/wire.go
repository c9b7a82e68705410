//go:build wireinject
// +build wireinject

package di

import (
	"Stockyard/pkg/config"
	"Stockyard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCache,
		ProvideModelStore,

		// Repositories
		ProvideStorage,
		ProvideHistoryReader,
		ProvidePublisher,
		ProvideFeedStream,

		// Use cases
		ProvideRecordProcessor,
		ProvideRecordCollector,
		ProvideKafkaSalesHandler,
		ProvideAdvisor,
		ProvideRecordsUseCase,
		ProvideTrainQueue,

		// HTTP
		ProvideAdvisorHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
