//go:build wireinject
// +build wireinject

package di

import (
	"TradeGate/pkg/config"
	"TradeGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideDecisionStore,
		ProvideTradeHistory,
		ProvideGateRegistry,
		ProvideExceptionStore,
		ProvideBeliefStore,
		ProvidePerformanceStore,
		ProvideHaltStore,
		ProvideCadenceCounter,
		ProvideLocker,
		ProvideTickStorage,
		ProvidePriceHistory,
		ProvideEventPublisher,
		ProvidePriceStream,

		// Collaborator clients and plan queue
		ProvidePositionSizer,
		ProvidePerformanceFeed,
		ProvidePlanDispatcher,
		ProvideExecutionPlanJob,
		ProvidePlanQueue,
		ProvidePlans,

		// Gate components
		ProvideCalibrator,
		ProvideThresholdAdjuster,
		ProvideNoveltyScorer,
		ProvideSlippageModel,
		ProvideHaltController,

		// Use cases
		ProvideHaltService,
		ProvideAdmissionPipeline,
		ProvideThresholdService,
		ProvideProposalsKafkaHandler,
		ProvideTickCollector,

		// HTTP handler and application server
		ProvideAdmissionHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
