package usecase

import (
	"context"
	"time"

	drepo "BioWatch/internal/domain/repository"
	mid "BioWatch/internal/middleware"
	"BioWatch/internal/services/detect"
	applogger "BioWatch/pkg/logger"
)

// BaselineCollector consumes the fault-free simulator stream, republishes raw
// bodies onto the transport topic, and appends qualifying rows to the
// baseline store for later training. A row qualifies only when temperature
// measurement and setpoint are both present.
type BaselineCollector struct {
	stream    drepo.TelemetryStream
	store     drepo.BaselineStore
	extractor *detect.Extractor
	metrics   drepo.Metrics
	log       *applogger.Logger
	pipe      *mid.IngestPipeline
	now       func() time.Time
}

func NewBaselineCollector(
	stream drepo.TelemetryStream,
	store drepo.BaselineStore,
	extractor *detect.Extractor,
	metrics drepo.Metrics,
	log *applogger.Logger,
	pipe *mid.IngestPipeline,
) *BaselineCollector {
	return &BaselineCollector{
		stream:    stream,
		store:     store,
		extractor: extractor,
		metrics:   metrics,
		log:       log,
		pipe:      pipe,
		now:       time.Now,
	}
}

// IsConnected reports the gateway connection state.
func (c *BaselineCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BaselineCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	bodyCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, bodyCh, errCh)
	return nil
}

func (c *BaselineCollector) consume(ctx context.Context, bodyCh <-chan []byte, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("stream")
			}
			// The gateway read loop ends after its first error, so a fresh
			// Read is needed; the old channels are dead either way.
			if bodyCh, errCh = c.reestablish(ctx); bodyCh == nil {
				return
			}
		case body, ok := <-bodyCh:
			if !ok {
				if bodyCh, errCh = c.reestablish(ctx); bodyCh == nil {
					return
				}
				continue
			}
			if body == nil {
				continue
			}
			c.handle(ctx, body)
		}
	}
}

// reestablish reconnects until the gateway accepts and returns fresh read
// channels, or nil channels once ctx is cancelled.
func (c *BaselineCollector) reestablish(ctx context.Context) (<-chan []byte, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			if c.log != nil {
				c.log.Warn("gateway reconnect failed", applogger.Error(err))
			}
			continue
		}
		return c.stream.Read(ctx)
	}
}

func (c *BaselineCollector) handle(ctx context.Context, body []byte) {
	if c.pipe != nil {
		if err := c.pipe.Process(ctx, body); err != nil && c.log != nil {
			c.log.Warn("republish failed", applogger.Error(err))
		}
	}

	rec, err := c.extractor.Extract(body, c.now())
	if err != nil {
		c.metrics.RecordError("decode")
		if c.log != nil {
			c.log.Warn("bad payload dropped", applogger.Error(err))
		}
		return
	}

	if !rec.BaselineComplete() {
		if c.log != nil {
			c.log.Debug("skipping sample (missing measurement or setpoint)")
		}
		return
	}

	if err := c.store.Append(ctx, rec); err != nil {
		c.metrics.RecordError("baseline_append")
		if c.log != nil {
			c.log.Error("baseline row append failed", applogger.Error(err))
		}
		return
	}
	c.metrics.RecordProcessed("baseline")
	if c.log != nil && rec.TempErr != nil {
		c.log.Info("baseline row saved",
			applogger.Float64("temp", *rec.Temp),
			applogger.Float64("temp_sp", *rec.TempSP),
			applogger.Float64("temp_err", *rec.TempErr),
		)
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *BaselineCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
