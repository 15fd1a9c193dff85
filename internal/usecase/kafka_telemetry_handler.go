package usecase

import (
	"context"
	"time"

	drepo "BioWatch/internal/domain/repository"
	"BioWatch/internal/services/detect"
	pkgkafka "BioWatch/pkg/kafka"
	applogger "BioWatch/pkg/logger"
)

// KafkaTelemetryHandler consumes telemetry summary bodies and feeds the
// detection pipeline. Undecodable bodies are counted, logged, and dropped so
// one bad message never stalls the stream; recorder failures are logged but
// the offset still commits, since retrying would double-count the record in
// the detector state.
type KafkaTelemetryHandler struct {
	topic     string
	extractor *detect.Extractor
	pipeline  *DetectionPipeline
	metrics   drepo.Metrics
	log       *applogger.Logger
	now       func() time.Time

	faultsLogged bool
}

func NewKafkaTelemetryHandler(
	topic string,
	extractor *detect.Extractor,
	pipeline *DetectionPipeline,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *KafkaTelemetryHandler {
	return &KafkaTelemetryHandler{
		topic:     topic,
		extractor: extractor,
		pipeline:  pipeline,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the arrival-time source.
func (h *KafkaTelemetryHandler) WithClock(now func() time.Time) *KafkaTelemetryHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *KafkaTelemetryHandler) Topic() string { return h.topic }

func (h *KafkaTelemetryHandler) Handle(ctx context.Context, b []byte) error {
	rec, err := h.extractor.Extract(b, h.now())
	if err != nil {
		h.metrics.RecordError("decode")
		if h.log != nil {
			h.log.Warn("bad payload dropped", applogger.Error(err))
		}
		return nil
	}

	// Log the raw faults block once so its structure can be inspected.
	if !h.faultsLogged {
		h.faultsLogged = true
		if h.log != nil {
			h.log.Debug("first faults block", applogger.Any("faults", h.extractor.RawFaults(b)))
		}
	}

	if _, err := h.pipeline.Process(ctx, rec); err != nil {
		if h.log != nil {
			h.log.Error("detection row append failed", applogger.Error(err))
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTelemetryHandler)(nil)
