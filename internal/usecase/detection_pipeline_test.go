package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"BioWatch/internal/domain/models"
	"BioWatch/internal/services/baseline"
	"BioWatch/internal/services/detect"
)

func fp(v float64) *float64 { return &v }

type fakeRecorder struct {
	rows []*models.DetectionRow
	fail bool
}

func (r *fakeRecorder) Append(_ context.Context, row *models.DetectionRow) error {
	if r.fail {
		return fmt.Errorf("append failed")
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeRecorder) Query(context.Context, time.Time, time.Time, int) ([]*models.DetectionRow, error) {
	return r.rows, nil
}

func (r *fakeRecorder) Close() error { return nil }

type fakeMetrics struct {
	mu        sync.Mutex
	processed int
	errors    map[string]int
	outcomes  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, outcomes: map[string]int{}}
}

func (m *fakeMetrics) RecordProcessed(string) { m.mu.Lock(); m.processed++; m.mu.Unlock() }
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordDecision(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordSeverity(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)  {}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testClassifier() *detect.Classifier {
	p := &baseline.Profile{
		TempError: baseline.ChannelStats{Mean: fp(0), Std: fp(0.2)},
		PHError:   baseline.ChannelStats{Mean: fp(0), Std: fp(0.05)},
		RPMError:  baseline.ChannelStats{Mean: fp(0), Std: fp(5)},
		Specs:     baseline.Specs{TemperatureTolC: 0.6, PHTol: 0.25, RPMTol: 20, ZTol: 3},
	}
	return detect.NewClassifier(p, detect.ResolveTolerances(p.Specs, fp(1.0)))
}

func newTestPipeline(rec *fakeRecorder, m *fakeMetrics, clock *fakeClock) *DetectionPipeline {
	return NewDetectionPipeline(
		PipelineConfig{Stream: "single_fault", Consecutive: 3, GracePeriod: 10 * time.Second, Now: clock.Now},
		testClassifier(), rec, nil, m, nil,
	)
}

// steadyRecord is in tolerance on every channel with stable setpoints.
func steadyRecord() *models.TelemetryRecord {
	return &models.TelemetryRecord{
		Temp: fp(37.8), TempSP: fp(37.0), TempErr: fp(0.8),
		PH: fp(7.0), PHSP: fp(7.0), PHErr: fp(0.0),
		RPM: fp(800), RPMSP: fp(800), RPMErr: fp(0.0),
	}
}

// hotRecord violates the temperature tolerance (error +2.2 vs tol 1.0).
func hotRecord(faults ...string) *models.TelemetryRecord {
	return &models.TelemetryRecord{
		Temp: fp(39.2), TempSP: fp(37.0), TempErr: fp(2.2),
		PH: fp(7.0), PHSP: fp(7.0), PHErr: fp(0.0),
		RPM: fp(800), RPMSP: fp(800), RPMErr: fp(0.0),
		Faults: faults,
	}
}

func TestPipelineDebounceFiresOnThird(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	rec := &fakeRecorder{}
	p := newTestPipeline(rec, newFakeMetrics(), clock)
	ctx := context.Background()

	for i, wantFinal := range []bool{false, false, true, true} {
		d, err := p.Process(ctx, hotRecord("heater_fault"))
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if !d.Raw {
			t.Fatalf("record %d: expected raw flag", i+1)
		}
		if d.Final != wantFinal {
			t.Fatalf("record %d: final=%v want %v", i+1, d.Final, wantFinal)
		}
		clock.Advance(time.Second)
	}

	counts := p.Counts()
	if counts.TP != 2 || counts.FN != 2 {
		t.Fatalf("counts: %+v", counts)
	}
}

func TestPipelineFalseBreaksStreak(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	p := newTestPipeline(&fakeRecorder{}, newFakeMetrics(), clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p.Process(ctx, hotRecord())
		clock.Advance(time.Second)
	}
	d, _ := p.Process(ctx, steadyRecord())
	clock.Advance(time.Second)
	if d.Final {
		t.Fatalf("in-tolerance record must clear the final flag")
	}

	// Three more consecutive violations are required before re-firing.
	for i := 0; i < 2; i++ {
		d, _ = p.Process(ctx, hotRecord())
		clock.Advance(time.Second)
		if d.Final {
			t.Fatalf("re-fired after only %d violations", i+1)
		}
	}
	d, _ = p.Process(ctx, hotRecord())
	if !d.Final {
		t.Fatalf("expected re-fire after 3 consecutive violations")
	}
}

func TestPipelineGraceSuppression(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	p := newTestPipeline(&fakeRecorder{}, newFakeMetrics(), clock)
	ctx := context.Background()

	p.Process(ctx, steadyRecord())
	clock.Advance(time.Second)

	// Setpoint step: suppression starts, even with a huge error.
	stepped := hotRecord()
	stepped.TempSP = fp(39.0)
	d, _ := p.Process(ctx, stepped)
	if !d.Suppressed || d.Raw || d.Final {
		t.Fatalf("expected suppressed decision: %+v", d)
	}
	if d.Reason != SuppressedReason {
		t.Fatalf("reason: %q", d.Reason)
	}
	if d.Score != 0 {
		t.Fatalf("suppressed score must be 0, got %v", d.Score)
	}

	// Still suppressed inside the window.
	clock.Advance(9 * time.Second)
	hot := hotRecord()
	hot.TempSP = fp(39.0)
	hot.TempErr = fp(2.2)
	if d, _ = p.Process(ctx, hot); !d.Suppressed {
		t.Fatalf("expected suppression inside grace window")
	}

	// Past the window the classifier runs again.
	clock.Advance(time.Second + time.Millisecond)
	if d, _ = p.Process(ctx, hot); d.Suppressed {
		t.Fatalf("suppression must lapse after the grace period")
	}
	if !d.Raw {
		t.Fatalf("expected raw violation after grace lapses")
	}
}

func TestPipelineCountsTotalInvariant(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	p := newTestPipeline(&fakeRecorder{}, newFakeMetrics(), clock)
	ctx := context.Background()

	records := []*models.TelemetryRecord{
		steadyRecord(), hotRecord(), hotRecord("f"), steadyRecord(), hotRecord(), steadyRecord(),
	}
	for i, r := range records {
		p.Process(ctx, r)
		clock.Advance(time.Second)
		if got := p.Counts().Total(); got != i+1 {
			t.Fatalf("after %d records total=%d", i+1, got)
		}
	}
}

func TestPipelineScoringOutcomes(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	m := newFakeMetrics()
	p := newTestPipeline(&fakeRecorder{}, m, clock)
	ctx := context.Background()

	// Sustained violation with faults active: 2 FN then TPs.
	var d *models.Decision
	for i := 0; i < 4; i++ {
		d, _ = p.Process(ctx, hotRecord("heater_fault"))
		clock.Advance(time.Second)
	}
	if d.Outcome != detect.OutcomeTP {
		t.Fatalf("outcome: %s", d.Outcome)
	}

	// Same streak without faults scores FP.
	d, _ = p.Process(ctx, hotRecord())
	if d.Outcome != detect.OutcomeFP {
		t.Fatalf("outcome: %s", d.Outcome)
	}

	if m.outcomes[detect.OutcomeTP] != 2 || m.outcomes[detect.OutcomeFN] != 2 || m.outcomes[detect.OutcomeFP] != 1 {
		t.Fatalf("metric outcomes: %v", m.outcomes)
	}
}

func TestPipelineRecordsRows(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	rec := &fakeRecorder{}
	p := newTestPipeline(rec, newFakeMetrics(), clock)
	ctx := context.Background()

	p.Process(ctx, hotRecord("heater_fault"))
	if len(rec.rows) != 1 {
		t.Fatalf("rows: %d", len(rec.rows))
	}
	row := rec.rows[0]
	if !row.Raw || row.Final {
		t.Fatalf("row flags: raw=%v final=%v", row.Raw, row.Final)
	}
	if row.FN != 1 || row.TP+row.TN+row.FP != 0 {
		t.Fatalf("row counters: %+v", row)
	}
	if row.TempErr == nil || *row.TempErr != 2.2 {
		t.Fatalf("row temp_err: %v", row.TempErr)
	}
	if len(row.Faults) != 1 || row.Faults[0] != "heater_fault" {
		t.Fatalf("row faults: %v", row.Faults)
	}
}

func TestPipelineRecorderFailureDoesNotCorruptState(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	m := newFakeMetrics()
	p := newTestPipeline(&fakeRecorder{fail: true}, m, clock)
	ctx := context.Background()

	if _, err := p.Process(ctx, steadyRecord()); err == nil {
		t.Fatalf("expected append error")
	}
	if p.Counts().Total() != 1 {
		t.Fatalf("state must advance exactly once per record")
	}
	if m.errors["record_append"] != 1 {
		t.Fatalf("errors: %v", m.errors)
	}
}

func TestPipelineStatusSnapshot(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)}
	p := newTestPipeline(&fakeRecorder{}, newFakeMetrics(), clock)
	ctx := context.Background()

	if s := p.Status(); s.Processed != 0 || s.Stream != "single_fault" {
		t.Fatalf("initial status: %+v", s)
	}

	p.Process(ctx, hotRecord("heater_fault"))
	s := p.Status()
	if s.Processed != 1 || !s.Raw || s.Final {
		t.Fatalf("status: %+v", s)
	}
	if s.Counts.FN != 1 {
		t.Fatalf("status counts: %+v", s.Counts)
	}
}
