package di

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/repository"
	domsvc "TradeGate/internal/domain/service"
	"TradeGate/internal/handler/api"
	mid "TradeGate/internal/middleware"
	internalrepo "TradeGate/internal/repository"
	"TradeGate/internal/service/pricefeed"
	"TradeGate/internal/services/analytics"
	"TradeGate/internal/services/gate"
	"TradeGate/internal/usecase"
	"TradeGate/pkg/cache"
	pkgch "TradeGate/pkg/clickhouse"
	"TradeGate/pkg/config"
	xhttp "TradeGate/pkg/http"
	pkgkafka "TradeGate/pkg/kafka"
	"TradeGate/pkg/logger"
	"TradeGate/pkg/metrics"
	"TradeGate/pkg/queue"
	"TradeGate/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the schema.
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

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.Schema()...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisCache creates the shared Redis cache client.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
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

// ProvideKafkaConsumer creates the proposals consumer configured from YAML.
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDecisionStore creates the ClickHouse decision store.
func ProvideDecisionStore(chClient *pkgch.Client) repository.DecisionStore {
	return internalrepo.NewClickHouseDecisionStore(chClient.DB())
}

// ProvideTradeHistory exposes admitted-decision history for novelty scoring.
func ProvideTradeHistory(chClient *pkgch.Client) repository.TradeHistory {
	return internalrepo.NewClickHouseDecisionStore(chClient.DB())
}

// ProvideGateRegistry creates the calibration gate registry behind a
// two-level cache.
func ProvideGateRegistry(chClient *pkgch.Client, c *cache.RedisCache) repository.GateRegistry {
	layered := cache.NewLayeredCache(c, cache.WithLayeredMemorySize(256))
	return internalrepo.NewCachedGateRegistry(internalrepo.NewClickHouseGateRegistry(chClient.DB()), layered)
}

// ProvideExceptionStore creates the cadence exception store.
func ProvideExceptionStore(chClient *pkgch.Client) repository.ExceptionStore {
	return internalrepo.NewClickHouseExceptionStore(chClient.DB())
}

// ProvideBeliefStore creates the belief snapshot store.
func ProvideBeliefStore(chClient *pkgch.Client) repository.BeliefStateStore {
	return internalrepo.NewClickHouseBeliefStore(chClient.DB())
}

// ProvidePerformanceStore creates the performance snapshot archive.
func ProvidePerformanceStore(chClient *pkgch.Client) repository.PerformanceStore {
	return internalrepo.NewClickHousePerformanceStore(chClient.DB())
}

// ProvideHaltStore combines Redis live state with ClickHouse transition audit.
func ProvideHaltStore(c *cache.RedisCache, chClient *pkgch.Client) repository.HaltStore {
	return internalrepo.NewRedisHaltStore(c, chClient.DB())
}

// ProvideCadenceCounter creates the Redis daily admission counter.
func ProvideCadenceCounter(c *cache.RedisCache) repository.CadenceCounter {
	return internalrepo.NewRedisCadenceCounter(c)
}

// ProvideLocker creates the Redis per-asset admission lock.
func ProvideLocker(c *cache.RedisCache) repository.Locker {
	return internalrepo.NewRedisLocker(c)
}

// ProvideTickStorage creates ClickHouse tick storage.
func ProvideTickStorage(chClient *pkgch.Client) repository.TickStorage {
	return internalrepo.NewClickHousePriceStore(chClient.DB())
}

// ProvidePriceHistory exposes daily closes and liquidity tiers.
func ProvidePriceHistory(chClient *pkgch.Client) repository.PriceHistory {
	return internalrepo.NewClickHousePriceStore(chClient.DB())
}

// ProvideEventPublisher creates the Kafka decision/halt publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.DecisionsTopic, cfg.Kafka.HaltTopic)
}

// ProvidePlanQueue creates the Redis execution plan queue with its dispatch job.
func ProvidePlanQueue(
	cfg *config.Config,
	log *logger.Logger,
	c *cache.RedisCache,
	job *usecase.ExecutionPlanJob,
) *queue.RedisQueue {
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, c.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(job)
	return q
}

// ProvidePlans adapts the Redis queue to the use case plan queue interface.
func ProvidePlans(q *queue.RedisQueue) usecase.PlanQueue {
	return q
}

// ProvidePositionSizer creates the collaborator sizing client.
func ProvidePositionSizer(cfg *config.Config) domsvc.PositionSizer {
	return analytics.NewHTTPPositionSizer(cfg)
}

// ProvidePerformanceFeed wraps the collaborator feed with the ClickHouse archive.
func ProvidePerformanceFeed(cfg *config.Config, store repository.PerformanceStore, log *logger.Logger) domsvc.PerformanceFeed {
	return usecase.NewArchivingPerformanceFeed(analytics.NewHTTPPerformanceFeed(cfg), store, log)
}

// ProvidePlanDispatcher creates the collaborator execution dispatch client.
func ProvidePlanDispatcher(cfg *config.Config) usecase.PlanDispatcher {
	return analytics.NewHTTPPlanDispatcher(cfg)
}

// ProvideExecutionPlanJob creates the queue job that dispatches admitted plans.
func ProvideExecutionPlanJob(dispatcher usecase.PlanDispatcher, metrics repository.Metrics, log *logger.Logger) *usecase.ExecutionPlanJob {
	return usecase.NewExecutionPlanJob(dispatcher, metrics, log)
}

// ProvideCalibrator creates the confidence calibrator.
func ProvideCalibrator(gates repository.GateRegistry) *gate.ConfidenceCalibrator {
	return gate.NewConfidenceCalibrator(gates)
}

// ProvideThresholdAdjuster creates the cadence threshold adjuster.
func ProvideThresholdAdjuster(cfg *config.Config, counter repository.CadenceCounter, exceptions repository.ExceptionStore) *gate.CadenceThresholdAdjuster {
	return gate.NewCadenceThresholdAdjuster(cfg, counter, exceptions)
}

// ProvideNoveltyScorer creates the novelty scorer.
func ProvideNoveltyScorer(beliefs repository.BeliefStateStore, history repository.TradeHistory) *gate.NoveltyScorer {
	return gate.NewNoveltyScorer(beliefs, history)
}

// ProvideSlippageModel creates the slippage model.
func ProvideSlippageModel(cfg *config.Config, prices repository.PriceHistory) *gate.SlippageModel {
	return gate.NewSlippageModel(cfg, prices)
}

// ProvideHaltController creates the epistemic halt controller.
func ProvideHaltController(cfg *config.Config, store repository.HaltStore, perf domsvc.PerformanceFeed) *gate.EpistemicHaltController {
	return gate.NewEpistemicHaltController(cfg, store, perf)
}

// ProvideHaltService wraps the controller with publishing and plan suspension.
func ProvideHaltService(
	cfg *config.Config,
	controller *gate.EpistemicHaltController,
	publisher repository.EventPublisher,
	plans usecase.PlanQueue,
	metrics repository.Metrics,
	log *logger.Logger,
) *usecase.HaltService {
	return usecase.NewHaltService(cfg, controller, publisher, plans, metrics, log)
}

// ProvideAdmissionPipeline creates the admission pipeline use case.
func ProvideAdmissionPipeline(
	cfg *config.Config,
	halt *usecase.HaltService,
	calibrator *gate.ConfidenceCalibrator,
	threshold *gate.CadenceThresholdAdjuster,
	novelty *gate.NoveltyScorer,
	slippage *gate.SlippageModel,
	sizer domsvc.PositionSizer,
	decisions repository.DecisionStore,
	counter repository.CadenceCounter,
	locks repository.Locker,
	publisher repository.EventPublisher,
	plans usecase.PlanQueue,
	metrics repository.Metrics,
	log *logger.Logger,
) *usecase.AdmissionPipeline {
	return usecase.NewAdmissionPipeline(
		cfg, halt, calibrator, threshold, novelty, slippage,
		sizer, decisions, counter, locks, publisher, plans, metrics, log,
	)
}

// ProvideThresholdService exposes the effective threshold for the HTTP API.
func ProvideThresholdService(adjuster *gate.CadenceThresholdAdjuster) *usecase.ThresholdService {
	return usecase.NewThresholdService(adjuster)
}

// ProvideProposalsKafkaHandler registers the handler for the proposals topic.
func ProvideProposalsKafkaHandler(cfg *config.Config, pipeline *usecase.AdmissionPipeline, metrics repository.Metrics) *usecase.ProposalsKafkaHandler {
	return usecase.NewProposalsKafkaHandler(cfg.Kafka.ProposalsTopic, pipeline, metrics)
}

// ProvidePriceStream creates the market data WebSocket stream.
func ProvidePriceStream(cfg *config.Config) repository.MarketStream {
	return pricefeed.New(
		cfg.PriceFeed.APIKey,
		cfg.PriceFeed.URL,
		cfg.PriceFeed.Assets,
		cfg.PriceFeed.ReconnectDelay,
		cfg.PriceFeed.PingInterval,
	)
}

// ProvideTickCollector creates the tick collector with its realtime pipeline.
func ProvideTickCollector(
	stream repository.MarketStream,
	store repository.TickStorage,
	metrics repository.Metrics,
) *usecase.TickCollector {
	proc := usecase.NewTickProcessor(store, metrics, 500, 2*time.Second)
	pipe := mid.NewRealtimePipeline(proc, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, proc, metrics, pipe)
}

// ProvideAdmissionHandler creates the Echo HTTP handler.
func ProvideAdmissionHandler(
	log *logger.Logger,
	pipeline *usecase.AdmissionPipeline,
	halt *usecase.HaltService,
	threshold *usecase.ThresholdService,
	decisions repository.DecisionStore,
	gates repository.GateRegistry,
	exceptions repository.ExceptionStore,
	beliefs repository.BeliefStateStore,
) xhttp.Handler {
	return api.NewAdmissionEchoHandler(log, pipeline, halt, threshold, decisions, gates, exceptions, beliefs)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	proposals *usecase.ProposalsKafkaHandler,
	plans *queue.RedisQueue,
	halt *usecase.HaltService,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
	c *cache.RedisCache,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, log, collector, consumer, proposals, plans, halt, publisher, chClient, c)
	app.SetHTTPHandler(handler)
	return app
}
