package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	drepo "BioWatch/internal/domain/repository"
)

// IngestPipeline sits between the simulator WebSocket and the Kafka topic.
// It validates frames, throttles the inbound rate, and buffers bodies when
// the downstream publisher is unavailable.
type IngestPipeline struct {
	sink    drepo.Publisher
	metrics drepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan []byte
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	last    time.Time // last accepted frame
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max frames per second accepted from the gateway.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size for downstream outages.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(sink drepo.Publisher, metrics drepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		sink:    sink,
		metrics: metrics,
		maxRPS:  20,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []byte, p.bufSize)
	return p
}

// Start launches background flushing of buffered bodies.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case b := <-p.bufCh:
				if b == nil {
					continue
				}
				if err := p.sink.Publish(ctx, b); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- b:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a frame, buffering on errors.
func (p *IngestPipeline) Process(ctx context.Context, body []byte) error {
	start := time.Now()
	if err := validateFrame(body); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.sink.Publish(ctx, body); err != nil {
		p.metrics.RecordError("pipeline_publish")
		// buffer non-blocking
		select {
		case p.bufCh <- body:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	return nil
}

func validateFrame(body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("empty frame")
	}
	if !json.Valid(body) {
		return fmt.Errorf("frame is not valid JSON")
	}
	return nil
}

func (p *IngestPipeline) allow(now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.IsZero() || now.Sub(p.last) >= time.Second/time.Duration(p.maxRPS) {
		p.last = now
		return true
	}
	return false
}
