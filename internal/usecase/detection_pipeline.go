package usecase

import (
	"context"
	"sync"
	"time"

	"BioWatch/internal/domain/models"
	drepo "BioWatch/internal/domain/repository"
	"BioWatch/internal/services/detect"
	applogger "BioWatch/pkg/logger"
)

// SuppressedReason is logged in place of a classification while a setpoint
// change is inside the grace window.
const SuppressedReason = "Suppressed due to recent setpoint change"

// PipelineConfig carries the streaming-decision parameters.
type PipelineConfig struct {
	Stream      string
	Consecutive int
	GracePeriod time.Duration
	Now         func() time.Time
}

// DetectionPipeline is the detector-state object: grace tracker, debounce
// window, and confusion counters live here for the life of the run. Records
// are processed strictly one at a time; the mutex is the single
// mutual-exclusion boundary in front of the consumer's worker pool.
type DetectionPipeline struct {
	mu sync.Mutex

	stream     string
	classifier *detect.Classifier
	grace      *detect.GraceTracker
	window     *detect.Window
	scorer     *detect.Scorer
	now        func() time.Time

	recorder drepo.Recorder
	cache    drepo.StatusCache
	metrics  drepo.Metrics
	log      *applogger.Logger

	processed int
	last      *models.DetectorStatus
}

// NewDetectionPipeline creates a pipeline with fresh state. recorder and
// metrics are required; cache and log may be nil.
func NewDetectionPipeline(
	cfg PipelineConfig,
	classifier *detect.Classifier,
	recorder drepo.Recorder,
	cache drepo.StatusCache,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *DetectionPipeline {
	if cfg.Consecutive < 1 {
		cfg.Consecutive = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DetectionPipeline{
		stream:     cfg.Stream,
		classifier: classifier,
		grace:      detect.NewGraceTracker(cfg.GracePeriod),
		window:     detect.NewWindow(cfg.Consecutive),
		scorer:     detect.NewScorer(),
		now:        cfg.Now,
		recorder:   recorder,
		cache:      cache,
		metrics:    metrics,
		log:        log,
	}
}

// Process runs one record through grace suppression, raw classification,
// debouncing, and scoring, then appends the detection row. State is mutated
// exactly once per record regardless of recorder errors; the returned error
// is the recorder's and the decision is always valid.
func (p *DetectionPipeline) Process(ctx context.Context, rec *models.TelemetryRecord) (*models.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	now := p.now()

	p.grace.Observe(rec, now)
	suppressed := p.grace.Suppressed(now)

	var raw bool
	var reason string
	var score float64
	if suppressed {
		reason = SuppressedReason
	} else {
		res := p.classifier.Evaluate(rec)
		raw, reason, score = res.Anomalous, res.Reason, res.Score
	}

	p.window.Push(raw)
	final := p.window.IsFull() && p.window.AllTrue()

	outcome := p.scorer.Observe(final, rec.FaultActive())
	counts := p.scorer.Snapshot()
	p.processed++

	decision := &models.Decision{
		Record:     rec,
		Raw:        raw,
		Final:      final,
		Suppressed: suppressed,
		Reason:     reason,
		Score:      score,
		Outcome:    outcome,
		Counts:     counts,
	}

	p.metrics.RecordProcessed(p.stream)
	p.metrics.RecordDecision(outcome)
	p.metrics.RecordSeverity(p.stream, score)

	p.last = &models.DetectorStatus{
		Stream:     p.stream,
		UpdatedAt:  now,
		Final:      final,
		Raw:        raw,
		Suppressed: suppressed,
		Reason:     reason,
		Score:      score,
		Faults:     rec.Faults,
		Counts:     counts,
		Processed:  p.processed,
	}
	if p.cache != nil {
		if err := p.cache.SetStatus(ctx, p.last); err != nil {
			p.metrics.RecordError("status_cache")
		}
	}

	p.logDecision(decision)

	err := p.recorder.Append(ctx, models.NewDetectionRow(now, decision))
	if err != nil {
		p.metrics.RecordError("record_append")
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return decision, err
}

// Status returns the snapshot after the most recent record, or nil before the
// first one.
func (p *DetectionPipeline) Status() *models.DetectorStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return &models.DetectorStatus{Stream: p.stream}
	}
	s := *p.last
	return &s
}

// Counts returns the running confusion matrix.
func (p *DetectionPipeline) Counts() models.ConfusionCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scorer.Snapshot()
}

// Tolerances exposes the effective limits for the startup banner and the API.
func (p *DetectionPipeline) Tolerances() detect.Tolerances {
	return p.classifier.Tolerances()
}

func (p *DetectionPipeline) logDecision(d *models.Decision) {
	if p.log == nil {
		return
	}
	fields := []applogger.Field{
		applogger.Bool("anomaly", d.Final),
		applogger.Bool("raw", d.Raw),
		applogger.Float64("score", d.Score),
		applogger.String("reason", d.Reason),
		applogger.Strings("faults", d.Record.Faults),
		applogger.Int("tp", d.Counts.TP),
		applogger.Int("tn", d.Counts.TN),
		applogger.Int("fp", d.Counts.FP),
		applogger.Int("fn", d.Counts.FN),
	}
	if d.Record.TempErr != nil {
		fields = append(fields, applogger.Float64("temp_err", *d.Record.TempErr))
	}
	if d.Record.PHErr != nil {
		fields = append(fields, applogger.Float64("ph_err", *d.Record.PHErr))
	}
	if d.Record.RPMErr != nil {
		fields = append(fields, applogger.Float64("rpm_err", *d.Record.RPMErr))
	}
	p.log.Info("record processed", fields...)
}
