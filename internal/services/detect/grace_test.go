package detect

import (
	"testing"
	"time"

	"BioWatch/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func spRecord(temp, ph, rpm *float64) *models.TelemetryRecord {
	return &models.TelemetryRecord{TempSP: temp, PHSP: ph, RPMSP: rpm}
}

func TestGraceFirstObservationIsNotAChange(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	now := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	g.Observe(spRecord(fp(37.0), fp(7.0), fp(800)), now)
	if g.Suppressed(now) {
		t.Fatalf("initial setpoints must not suppress")
	}
}

func TestGraceSuppressesWithinWindow(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	t0 := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	g.Observe(spRecord(fp(37.0), nil, nil), t0)
	g.Observe(spRecord(fp(39.0), nil, nil), t0.Add(time.Second)) // change

	cases := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{5 * time.Second, true},
		{10*time.Second - time.Millisecond, true},
		{10 * time.Second, false},
		{11 * time.Second, false},
	}
	for _, c := range cases {
		if got := g.Suppressed(t0.Add(time.Second).Add(c.at)); got != c.want {
			t.Fatalf("at +%v: got %v want %v", c.at, got, c.want)
		}
	}
}

func TestGraceRearmsOnEveryChange(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	t0 := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	g.Observe(spRecord(nil, fp(7.0), nil), t0)
	g.Observe(spRecord(nil, fp(7.2), nil), t0.Add(2*time.Second))
	g.Observe(spRecord(nil, fp(7.4), nil), t0.Add(9*time.Second))

	// 10s after the first change but only 3s after the second: still armed.
	if !g.Suppressed(t0.Add(12 * time.Second)) {
		t.Fatalf("expected suppression to re-arm on second change")
	}
	if g.Suppressed(t0.Add(19*time.Second + time.Millisecond)) {
		t.Fatalf("expected suppression to lapse after last change")
	}
}

func TestGraceAnyChannelSuppresses(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	t0 := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	g.Observe(spRecord(fp(37.0), fp(7.0), fp(800)), t0)
	g.Observe(spRecord(fp(37.0), fp(7.0), fp(900)), t0.Add(time.Second))

	if !g.Suppressed(t0.Add(2 * time.Second)) {
		t.Fatalf("rpm setpoint change must suppress globally")
	}
}

func TestGraceUnchangedSetpointNeverSuppresses(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	t0 := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		g.Observe(spRecord(fp(37.0), fp(7.0), fp(800)), t0.Add(time.Duration(i)*time.Second))
	}
	if g.Suppressed(t0.Add(5 * time.Second)) {
		t.Fatalf("stable setpoints must not suppress")
	}
}

func TestGraceMissingSetpointKeepsState(t *testing.T) {
	g := NewGraceTracker(10 * time.Second)
	t0 := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	g.Observe(spRecord(fp(37.0), nil, nil), t0)
	g.Observe(spRecord(nil, nil, nil), t0.Add(time.Second)) // absent, no update
	g.Observe(spRecord(fp(38.0), nil, nil), t0.Add(2*time.Second))

	if !g.Suppressed(t0.Add(3 * time.Second)) {
		t.Fatalf("change across an absent sample must still count")
	}
}
