package di

import (
	"context"
	"fmt"
	"time"

	"Stockyard/internal/domain/repository"
	"Stockyard/internal/handler/api"
	mid "Stockyard/internal/middleware"
	internalrepo "Stockyard/internal/repository"
	"Stockyard/internal/service/feed"
	"Stockyard/internal/services/forest"
	"Stockyard/internal/usecase"
	"Stockyard/pkg/cache"
	pkgch "Stockyard/pkg/clickhouse"
	"Stockyard/pkg/config"
	pkgkafka "Stockyard/pkg/kafka"
	applogger "Stockyard/pkg/logger"
	"Stockyard/pkg/metrics"
	"Stockyard/pkg/queue"
	"Stockyard/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if db == "" {
		db = "stockyard"
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sales_raw (
            sale_date DateTime,
            market String,
            breed String,
            season String,
            price Float64,
            weight Float64,
            age Float64,
            org_id String
        ) ENGINE=MergeTree ORDER BY (market, sale_date)`, db),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
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

// ProvideStorage creates ClickHouse storage repository for sale records.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	db := cfg.ClickHouse.Database
	if db == "" {
		db = "stockyard"
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), db+".sales_raw")
}

// ProvideHistoryReader creates the read-only ClickHouse history view.
func ProvideHistoryReader(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.HistoryReader {
	db := cfg.ClickHouse.Database
	if db == "" {
		db = "stockyard"
	}
	rs := internalrepo.NewCHRecordStore(chClient, db+".sales_raw")
	rs.SetLogger(l)
	return rs
}

// ProvidePublisher creates Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
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

// ProvideKafkaSalesHandler registers handler for the sales topic.
func ProvideKafkaSalesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSalesHandler {
	return usecase.NewKafkaSalesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFeedStream creates the auction floor WebSocket stream.
func ProvideFeedStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.BackfillURL,
		cfg.Feed.Markets,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideRecordProcessor creates the sale record processor use case.
func ProvideRecordProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.RecordProcessor {
	return usecase.NewRecordProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideRecordCollector creates the sale record collector use case.
func ProvideRecordCollector(
	stream repository.MarketStream,
	processor *usecase.RecordProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.RecordCollector {
	// Build middleware pipeline between WebSocket and backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewRecordCollector(stream, processor, metrics, pipe, cfg.Feed.Markets, cfg.Feed.BackfillDays)
}

// ProvideModelStore opens the SQLite model registry.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	path := cfg.Model.StorePath
	if path == "" {
		path = "stockyard_models.db"
	}
	return internalrepo.NewSQLiteModelStore(path)
}

// ProvideAdvisor builds the advisor with the configured ensemble settings.
func ProvideAdvisor(
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
	store repository.ModelStore,
) *usecase.Advisor {
	fc := forest.DefaultConfig()
	if cfg.Model.Trees > 0 {
		fc.Trees = cfg.Model.Trees
	}
	if cfg.Model.MaxDepth > 0 {
		fc.MaxDepth = cfg.Model.MaxDepth
	}
	if cfg.Model.MinLeaf > 0 {
		fc.MinLeaf = cfg.Model.MinLeaf
	}
	if cfg.Model.MaxFeatures > 0 {
		fc.MaxFeature = cfg.Model.MaxFeatures
	}
	if cfg.Model.Seed != 0 {
		fc.Seed = cfg.Model.Seed
	}

	adv := usecase.NewAdvisor(fc)
	adv.SetLogger(l)
	adv.SetMetrics(m)
	adv.SetModelStore(store)
	return adv
}

// ProvideRecordsUseCase creates the records query use case.
func ProvideRecordsUseCase(store repository.Storage) *usecase.RecordsUseCase {
	return usecase.NewRecordsUseCase(store)
}

// ProvideRedisClient creates a shared Redis client, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Advisor.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Advisor.Redis.Host, cfg.Advisor.Redis.Port),
		Password: cfg.Advisor.Redis.Password,
		DB:       cfg.Advisor.Redis.DB,
	})
}

// ProvideCache builds the response cache: layered memory+redis when Redis is
// enabled, plain in-memory otherwise.
func ProvideCache(cfg *config.Config) cache.Service {
	if cfg.Advisor.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Advisor.Redis.Host),
			cache.WithRedisPort(cfg.Advisor.Redis.Port),
			cache.WithRedisPassword(cfg.Advisor.Redis.Password),
			cache.WithRedisDB(cfg.Advisor.Redis.DB),
		)
		if err == nil {
			return cache.NewLayeredCache(rc)
		}
		// fall through to memory cache when redis is unreachable
	}
	return cache.NewMemoryCache()
}

// ProvideTrainQueue creates the Redis-backed training job queue, nil when disabled.
func ProvideTrainQueue(
	cfg *config.Config,
	l *applogger.Logger,
	client *redis.Client,
	advisor *usecase.Advisor,
	store repository.Storage,
) *queue.RedisQueue {
	if !cfg.Advisor.Queue.Enabled || client == nil {
		return nil
	}
	workers := cfg.Advisor.Queue.Workers
	if workers <= 0 {
		workers = 1
	}
	qc := &queue.QueueConfig{
		Workers:    workers,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}
	q := queue.NewRedisQueue(l, qc, client, queue.ModeProducerConsumer)
	if cfg.Advisor.Queue.Stream != "" {
		q = queue.NewRedisQueue(l, qc, client, queue.ModeProducerConsumer,
			queue.WithKeyPrefix(cfg.Advisor.Queue.Stream))
	}
	q.RegisterJob(usecase.NewTrainJob(advisor, store, l))
	return q
}

// ProvideAdvisorHandler creates the HTTP handler with cache and queue wiring.
func ProvideAdvisorHandler(
	cfg *config.Config,
	l *applogger.Logger,
	advisor *usecase.Advisor,
	records *usecase.RecordsUseCase,
	store repository.Storage,
	history repository.HistoryReader,
	c cache.Service,
	q *queue.RedisQueue,
) *api.AdvisorHandler {
	h := api.NewAdvisorHandler(l, advisor, records, store)
	h.SetCache(c, cfg.Advisor.CacheTTL.Trend)
	h.SetHistoryReader(history)
	if q != nil {
		h.SetQueue(q)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.RecordCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSalesHandler,
	chClient *pkgch.Client,
	advisor *usecase.Advisor,
	handler *api.AdvisorHandler,
	q *queue.RedisQueue,
	modelStore repository.ModelStore,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.SetAdvisor(advisor)
	app.SetQueue(q)
	app.SetModelStore(modelStore)
	if collector != nil {
		app.RecordProc = collector.Processor()
	}
	return app
}
