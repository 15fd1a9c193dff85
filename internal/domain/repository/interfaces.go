package repository

import (
	"context"
	"time"

	"BioWatch/internal/domain/models"
)

// TelemetryStream is the live simulator feed the collector consumes. Raw
// message bodies are delivered as-is; decoding is the consumer's concern.
type TelemetryStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan []byte, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Recorder appends one detection row per processed message. Batching policy
// belongs to the implementation, not the decision core.
type Recorder interface {
	Append(ctx context.Context, row *models.DetectionRow) error
	Query(ctx context.Context, from, to time.Time, limit int) ([]*models.DetectionRow, error)
	Close() error
}

// BaselineStore holds fault-free training rows between collection and training.
type BaselineStore interface {
	Append(ctx context.Context, rec *models.TelemetryRecord) error
	LoadAll(ctx context.Context) ([]*models.TelemetryRecord, error)
	Close() error
}

// Publisher republishes raw telemetry bodies onto the transport topic.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// StatusCache keeps the latest detector status for external readers.
type StatusCache interface {
	SetStatus(ctx context.Context, s *models.DetectorStatus) error
	GetStatus(ctx context.Context, stream string) (*models.DetectorStatus, error)
	Close() error
}

// Metrics records operational metrics from the pipeline and its collaborators.
type Metrics interface {
	RecordProcessed(stream string)
	RecordError(kind string)
	RecordDecision(outcome string)
	RecordSeverity(stream string, score float64)
	RecordLatency(op string, seconds float64)
}
