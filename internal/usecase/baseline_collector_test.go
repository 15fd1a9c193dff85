package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BioWatch/internal/domain/models"
	"BioWatch/internal/services/detect"
)

type fakeBaselineStore struct {
	mu   sync.Mutex
	rows []*models.TelemetryRecord
}

func (s *fakeBaselineStore) Append(_ context.Context, rec *models.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rec)
	return nil
}

func (s *fakeBaselineStore) LoadAll(context.Context) ([]*models.TelemetryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, nil
}

func (s *fakeBaselineStore) Close() error { return nil }

func (s *fakeBaselineStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// fakeStream hands out one pair of channels per Read call, mimicking the
// gateway client's read loop ending after its first error.
type fakeStream struct {
	mu    sync.Mutex
	reads []struct {
		bodies chan []byte
		errs   chan error
	}
	reconnects int
}

func (f *fakeStream) Connect(context.Context) error   { return nil }
func (f *fakeStream) Subscribe(context.Context) error { return nil }
func (f *fakeStream) Close() error                    { return nil }
func (f *fakeStream) IsConnected() bool               { return true }

func (f *fakeStream) Reconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return nil
}

func (f *fakeStream) Read(context.Context) (<-chan []byte, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := struct {
		bodies chan []byte
		errs   chan error
	}{make(chan []byte, 8), make(chan error, 1)}
	f.reads = append(f.reads, r)
	return r.bodies, r.errs
}

func (f *fakeStream) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads)
}

func (f *fakeStream) read(i int) (chan []byte, chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[i].bodies, f.reads[i].errs
}

const completeBody = `{
	"temperature_C": {"mean": 37.0},
	"setpoints": {"temperature_C": 37.0}
}`

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestCollectorResumesAfterStreamError(t *testing.T) {
	stream := &fakeStream{}
	store := &fakeBaselineStore{}
	m := newFakeMetrics()
	c := NewBaselineCollector(stream, store, detect.NewExtractor(""), m, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	bodies, errs := stream.read(0)
	bodies <- []byte(completeBody)
	waitFor(t, func() bool { return store.count() == 1 }, "first row never stored")

	// Simulate the gateway read loop dying: error, then both channels close.
	errs <- errors.New("read: connection reset")
	close(errs)
	close(bodies)

	waitFor(t, func() bool { return stream.readCount() == 2 }, "read never re-invoked after reconnect")
	if stream.reconnects == 0 {
		t.Fatal("reconnect never attempted")
	}

	// Data must flow again on the fresh channels.
	bodies, _ = stream.read(1)
	bodies <- []byte(completeBody)
	waitFor(t, func() bool { return store.count() == 2 }, "no rows stored after reconnect")
}

func TestCollectorStopsReconnectingOnCancel(t *testing.T) {
	stream := &fakeStream{}
	store := &fakeBaselineStore{}
	c := NewBaselineCollector(stream, store, detect.NewExtractor(""), newFakeMetrics(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel()
	_, errs := stream.read(0)
	close(errs)

	// The consume loop must exit instead of dialing forever; give it a
	// moment and check no flood of reconnect attempts piled up.
	time.Sleep(50 * time.Millisecond)
	stream.mu.Lock()
	n := stream.reconnects
	stream.mu.Unlock()
	if n > 1 {
		t.Fatalf("reconnect attempts after cancel = %d", n)
	}
}
