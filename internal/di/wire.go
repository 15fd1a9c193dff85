//go:build wireinject
// +build wireinject

package di

import (
	"BioWatch/pkg/config"
	"BioWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeDetector wires up the detector process: Kafka consumer, decision
// pipeline, storage, and the status API.
func InitializeDetector(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Storage
		ProvideRecorder,
		ProvideStatusCache,

		// Detection core
		ProvideProfile,
		ProvideClassifier,
		ProvideExtractor,
		ProvideDetectionPipeline,
		ProvideKafkaTelemetryHandler,

		// HTTP API
		ProvideStatusHandler,

		// Application server
		ProvideDetectorApp,
	)
	return &server.App{}, nil
}

// InitializeCollector wires up the baseline collector process: gateway
// stream, Kafka republisher, and the baseline store.
func InitializeCollector(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Storage
		ProvideBaselineStore,

		// Ingest
		ProvideExtractor,
		ProvideTelemetryPublisher,
		ProvideTelemetryStream,
		ProvideBaselineCollector,

		// Application server
		ProvideCollectorApp,
	)
	return &server.App{}, nil
}
