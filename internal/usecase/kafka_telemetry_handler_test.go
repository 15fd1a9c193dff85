package usecase

import (
	"context"
	"testing"
	"time"

	"BioWatch/internal/services/detect"
)

func newTestHandler(rec *fakeRecorder, m *fakeMetrics) *KafkaTelemetryHandler {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	p := newTestPipeline(rec, m, clock)
	h := NewKafkaTelemetryHandler("bioreactor_sim.single_fault.telemetry.summary", detect.NewExtractor(""), p, m, nil)
	return h.WithClock(clock.Now)
}

func TestHandlerDropsBadPayload(t *testing.T) {
	rec := &fakeRecorder{}
	m := newFakeMetrics()
	h := newTestHandler(rec, m)

	if err := h.Handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("decode failures must not propagate: %v", err)
	}
	if m.errors["decode"] != 1 {
		t.Fatalf("decode error not counted: %v", m.errors)
	}
	if len(rec.rows) != 0 {
		t.Fatalf("bad payload must not reach the pipeline")
	}
}

func TestHandlerProcessesGoodPayload(t *testing.T) {
	rec := &fakeRecorder{}
	m := newFakeMetrics()
	h := newTestHandler(rec, m)

	body := []byte(`{
		"temperature_C": {"mean": 37.8},
		"setpoints": {"temperature_C": 37.0},
		"faults": {"last_active": []}
	}`)
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(rec.rows) != 1 {
		t.Fatalf("expected one detection row, got %d", len(rec.rows))
	}
	if m.processed != 1 {
		t.Fatalf("processed: %d", m.processed)
	}
}

func TestHandlerSwallowsRecorderError(t *testing.T) {
	rec := &fakeRecorder{fail: true}
	m := newFakeMetrics()
	h := newTestHandler(rec, m)

	body := []byte(`{"temperature_C": {"mean": 37.8}, "setpoints": {"temperature_C": 37.0}}`)
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("recorder errors must not trigger redelivery: %v", err)
	}
	if m.errors["record_append"] != 1 {
		t.Fatalf("errors: %v", m.errors)
	}
}

func TestHandlerTopic(t *testing.T) {
	h := newTestHandler(&fakeRecorder{}, newFakeMetrics())
	if h.Topic() != "bioreactor_sim.single_fault.telemetry.summary" {
		t.Fatalf("topic: %s", h.Topic())
	}
}
