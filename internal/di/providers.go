package di

import (
	"context"
	"fmt"
	"time"

	"BioWatch/internal/domain/repository"
	"BioWatch/internal/handler/api"
	mid "BioWatch/internal/middleware"
	internalrepo "BioWatch/internal/repository"
	"BioWatch/internal/service/simgw"
	"BioWatch/internal/services/baseline"
	"BioWatch/internal/services/detect"
	"BioWatch/internal/usecase"
	"BioWatch/pkg/cache"
	pkgch "BioWatch/pkg/clickhouse"
	"BioWatch/pkg/config"
	pkgkafka "BioWatch/pkg/kafka"
	applogger "BioWatch/pkg/logger"
	"BioWatch/pkg/metrics"
	"BioWatch/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when one of the storage
// backends runs on ClickHouse. Returns nil for pure-CSV deployments.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Recorder.Backend != "clickhouse" && cfg.Baseline.Backend != "clickhouse" {
		return nil, nil
	}

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

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRecorder creates the detection log backend.
func ProvideRecorder(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.Recorder, error) {
	if cfg.Recorder.Backend == "clickhouse" {
		store := internalrepo.NewCHDetectionLog(ch, cfg.Detector.Stream)
		store.SetLogger(l)
		return store, nil
	}
	return internalrepo.NewCSVDetectionLog(cfg.Recorder.CSVPath)
}

// ProvideBaselineStore creates the baseline row backend.
func ProvideBaselineStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.BaselineStore, error) {
	if cfg.Baseline.Backend == "clickhouse" {
		store := internalrepo.NewCHBaselineStore(ch, cfg.Detector.Stream)
		store.SetLogger(l)
		return store, nil
	}
	return internalrepo.NewCSVBaselineStore(cfg.Baseline.CSVPath)
}

// ProvideStatusCache creates the live status store, Redis when configured.
func ProvideStatusCache(cfg *config.Config) (repository.StatusCache, error) {
	var svc cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
	} else {
		svc = cache.NewMemoryCache()
	}
	return internalrepo.NewStatusCache(svc, cfg.Redis.TTL), nil
}

// ProvideProfile loads the trained baseline profile.
func ProvideProfile(cfg *config.Config) (*baseline.Profile, error) {
	p, err := baseline.LoadProfile(cfg.Detector.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("baseline profile %s: %w", cfg.Detector.ProfilePath, err)
	}
	return p, nil
}

// ProvideClassifier builds the per-channel classifier from the profile.
func ProvideClassifier(cfg *config.Config, profile *baseline.Profile) *detect.Classifier {
	tol := detect.ResolveTolerances(profile.Specs, cfg.TemperatureOverride())
	return detect.NewClassifier(profile, tol)
}

// ProvideExtractor creates the payload extractor.
func ProvideExtractor(cfg *config.Config) *detect.Extractor {
	return detect.NewExtractor(cfg.Detector.FaultsKey)
}

// ProvideDetectionPipeline creates the detector-state pipeline.
func ProvideDetectionPipeline(
	cfg *config.Config,
	classifier *detect.Classifier,
	recorder repository.Recorder,
	statusCache repository.StatusCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DetectionPipeline {
	tol := classifier.Tolerances()
	l.Info("detector configured",
		applogger.String("stream", cfg.Detector.Stream),
		applogger.Float64("temp_tol", tol.Temp),
		applogger.Float64("ph_tol", tol.PH),
		applogger.Float64("rpm_tol", tol.RPM),
		applogger.Int("consecutive", cfg.Detector.Consecutive),
		applogger.Duration("grace_period", cfg.Detector.GracePeriod),
	)
	return usecase.NewDetectionPipeline(usecase.PipelineConfig{
		Stream:      cfg.Detector.Stream,
		Consecutive: cfg.Detector.Consecutive,
		GracePeriod: cfg.Detector.GracePeriod,
	}, classifier, recorder, statusCache, m, l)
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

// ProvideKafkaTelemetryHandler registers the handler for the telemetry topic.
func ProvideKafkaTelemetryHandler(
	cfg *config.Config,
	extractor *detect.Extractor,
	pipeline *usecase.DetectionPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.KafkaTelemetryHandler {
	return usecase.NewKafkaTelemetryHandler(cfg.TelemetryTopic(), extractor, pipeline, m, l)
}

// ProvideStatusHandler creates the HTTP API handler.
func ProvideStatusHandler(
	l *applogger.Logger,
	pipeline *usecase.DetectionPipeline,
	recorder repository.Recorder,
	profile *baseline.Profile,
) *api.StatusEchoHandler {
	return api.NewStatusEchoHandler(l, pipeline, recorder, profile)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
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

// ProvideTelemetryPublisher creates the Kafka publisher for raw bodies.
func ProvideTelemetryPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.TelemetryTopic(), cfg.Detector.Stream)
}

// ProvideTelemetryStream creates the simulator gateway WebSocket stream.
func ProvideTelemetryStream(cfg *config.Config) repository.TelemetryStream {
	return simgw.New(
		cfg.Gateway.WebSocketURL,
		cfg.Detector.Stream,
		cfg.Gateway.ReconnectDelay,
		cfg.Gateway.PingInterval,
	)
}

// ProvideBaselineCollector creates the gateway collector use case.
func ProvideBaselineCollector(
	stream repository.TelemetryStream,
	store repository.BaselineStore,
	extractor *detect.Extractor,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.BaselineCollector {
	pipe := mid.NewIngestPipeline(pub, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBaselineCollector(stream, store, extractor, m, l, pipe)
}

// ProvideDetectorApp assembles the detector process.
func ProvideDetectorApp(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTelemetryHandler,
	statusHandler *api.StatusEchoHandler,
	recorder repository.Recorder,
	statusCache repository.StatusCache,
	chClient *pkgch.Client,
) *server.App {
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, _ kafkago.Message, _ []byte, err error) {
			l.Error("telemetry handler attempt failed",
				applogger.String("topic", topic),
				applogger.Error(err),
			)
		},
	})
	app := server.New(cfg, l)
	app.SetConsumer(consumer, kh)
	app.SetHTTPHandler(statusHandler)
	app.SetClickHouse(chClient)
	app.AddCloser(recorder)
	app.AddCloser(statusCache)
	return app
}

// ProvideCollectorApp assembles the baseline collector process.
func ProvideCollectorApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.BaselineCollector,
	store repository.BaselineStore,
	pub repository.Publisher,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, l)
	app.SetCollector(collector)
	app.SetClickHouse(chClient)
	app.AddCloser(store)
	app.AddCloser(pub)
	return app
}
