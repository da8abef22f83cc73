package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "ARSPull/internal/domain/repository"
	mid "ARSPull/internal/middleware"
	internalrepo "ARSPull/internal/repository"
	"ARSPull/internal/service/polymarket"
	"ARSPull/internal/services/ars"
	"ARSPull/internal/usecase"
	pkgch "ARSPull/pkg/clickhouse"
	"ARSPull/pkg/config"
	pkgkafka "ARSPull/pkg/kafka"
	applogger "ARSPull/pkg/logger"
	"ARSPull/pkg/metrics"
	"ARSPull/pkg/queue"
	"ARSPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
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
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + `.ars_signals (
			generated_at DateTime64(3, 'UTC'),
			expires_at DateTime64(3, 'UTC'),
			market_id String,
			market_title String,
			direction LowCardinality(String),
			raw_conviction Float64,
			ars_conviction Float64,
			ars_score Float64,
			total_size Float64,
			avg_entry_price Float64,
			current_price Float64,
			expected_edge Float64,
			num_traders UInt32,
			outliers_removed UInt32,
			avg_consistency Float64,
			recommended_size Float64,
			entry_quality LowCardinality(String),
			regime LowCardinality(String),
			regime_multiplier Float64,
			traders String
		) ENGINE = MergeTree ORDER BY (market_id, generated_at)`,
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
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideMarketData creates the Polymarket data-API client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) domrepo.MarketData {
	return polymarket.NewClient(cfg.Polymarket.DataAPIURL, l,
		polymarket.WithRequestTimeout(cfg.Polymarket.RequestTimeout),
		polymarket.WithRate(cfg.Polymarket.RatePerSecond),
	)
}

// ProvidePriceStream creates the Polymarket WebSocket price stream. Asset
// subscriptions are retargeted by the collector after each cycle.
func ProvidePriceStream(cfg *config.Config) domrepo.PriceStream {
	return polymarket.NewStream(
		cfg.Polymarket.WebSocketURL,
		nil,
		cfg.Polymarket.ReconnectDelay,
		cfg.Polymarket.PingInterval,
	)
}

// ProvidePriceBook creates the in-memory price history book.
func ProvidePriceBook() domrepo.PriceBook {
	return internalrepo.NewMemoryPriceBook(256)
}

// ProvideTraderDirectory creates the cached trader directory.
func ProvideTraderDirectory(data domrepo.MarketData, l *applogger.Logger) *internalrepo.CachedTraderDirectory {
	return internalrepo.NewCachedTraderDirectory(data, l, 30*time.Minute)
}

// ProvideARSConfig resolves the stabilizer configuration: named preset first,
// then non-zero YAML overrides field by field.
func ProvideARSConfig(cfg *config.Config) (ars.Config, error) {
	c, err := ars.ConfigForPreset(cfg.ARS.Preset)
	if err != nil {
		return ars.Config{}, fmt.Errorf("ars config: %w", err)
	}
	if v := cfg.ARS.OutlierStdThreshold; v > 0 {
		c.OutlierStdThreshold = v
	}
	if v := cfg.ARS.MinSampleSize; v > 0 {
		c.MinSampleSize = v
	}
	if v := cfg.ARS.BasePositionSize; v > 0 {
		c.BasePositionSize = v
	}
	if v := cfg.ARS.MaxPositionSize; v > 0 {
		c.MaxPositionSize = v
	}
	if v := cfg.ARS.MinPositionSize; v > 0 {
		c.MinPositionSize = v
	}
	if v := cfg.ARS.MaxDailyDrawdown; v > 0 {
		c.MaxDailyDrawdown = v
	}
	if v := cfg.ARS.MaxTotalDrawdown; v > 0 {
		c.MaxTotalDrawdown = v
	}
	if err := c.Validate(); err != nil {
		return ars.Config{}, fmt.Errorf("ars config: %w", err)
	}
	return c, nil
}

// ProvideDrawdownGuard creates the shared drawdown guard.
func ProvideDrawdownGuard(arsCfg ars.Config) *ars.DrawdownGuard {
	return ars.NewDrawdownGuard(arsCfg)
}

// ProvideStabilizer creates the signal stabilizer.
func ProvideStabilizer(
	arsCfg ars.Config,
	cfg *config.Config,
	guard *ars.DrawdownGuard,
	dir *internalrepo.CachedTraderDirectory,
) (*ars.Stabilizer, error) {
	return ars.NewStabilizer(arsCfg, cfg.ARS.TraderPoolSize, guard, dir)
}

// ProvideSignalStore creates the ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.SignalStore {
	store := internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database+".ars_signals")
	if s, ok := store.(*internalrepo.CHSignalStore); ok {
		s.SetLogger(l)
	}
	return store
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideHandoffQueue creates the Redis execution handoff, or nil when the
// handoff (or Redis itself) is disabled.
func ProvideHandoffQueue(cfg *config.Config, l *applogger.Logger) domrepo.HandoffQueue {
	if !cfg.Handoff.Enabled || !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	opts := []queue.RedisQueueOption{}
	if cfg.Handoff.Queue != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Handoff.Queue))
	}
	pub := queue.NewRedisPublisher(l, client, opts...)
	return internalrepo.NewRedisHandoffQueue(pub, cfg.Handoff.MinScore)
}

// ProvideConsensusBuilder creates the consensus builder.
func ProvideConsensusBuilder(book domrepo.PriceBook, cfg *config.Config) *usecase.ConsensusBuilder {
	return usecase.NewConsensusBuilder(book, cfg.Collector.MinConsensus, cfg.Collector.MinConviction, cfg.Collector.MaxSignals)
}

// ProvideSignalProcessor creates the signal processor use case.
func ProvideSignalProcessor(
	stab *ars.Stabilizer,
	pub domrepo.SignalPublisher,
	store domrepo.SignalStore,
	handoff domrepo.HandoffQueue,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(stab, pub, store, handoff, m, cfg.Backend.Type)
}

// ProvidePricePipeline builds the validation/throttle pipeline between the
// WebSocket stream and the price book.
func ProvidePricePipeline(book domrepo.PriceBook, m domrepo.Metrics) *mid.PricePipeline {
	return mid.NewPricePipeline(usecase.NewTickRecorder(book), m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
}

// ProvideSignalCollector creates the signal collector use case.
func ProvideSignalCollector(
	data domrepo.MarketData,
	stream domrepo.PriceStream,
	book domrepo.PriceBook,
	dir *internalrepo.CachedTraderDirectory,
	builder *usecase.ConsensusBuilder,
	proc *usecase.SignalProcessor,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SignalCollector {
	return usecase.NewSignalCollector(
		data,
		stream,
		book,
		dir,
		builder,
		proc,
		m,
		l,
		cfg.Collector.Interval,
		cfg.Collector.LeaderboardLimit,
	)
}

// ProvideKafkaConsumer creates the outcomes consumer, or nil when no
// outcomes topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.Consumer.Topic == "" {
		return nil, nil
	}
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

// ProvideKafkaOutcomesHandler registers the handler for the outcomes topic.
func ProvideKafkaOutcomesHandler(guard *ars.DrawdownGuard, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaOutcomesHandler {
	if cfg.Kafka.Consumer.Topic == "" {
		return nil
	}
	return usecase.NewKafkaOutcomesHandler(cfg.Kafka.Consumer.Topic, guard, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.SignalCollector,
	pipe *mid.PricePipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaOutcomesHandler,
	chClient *pkgch.Client,
	store domrepo.SignalStore,
	guard *ars.DrawdownGuard,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Avoid a typed-nil handler behind the interface when outcomes are off.
	var handler pkgkafka.MessageHandler
	if kh != nil {
		handler = kh
	}
	app := server.New(cfg, collector, pipe, consumer, handler, chClient, store, guard)
	if collector != nil {
		app.SignalProc = collector.Processor()
	}
	return app
}
