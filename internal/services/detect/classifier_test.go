package detect

import (
	"math"
	"strings"
	"testing"

	"BioWatch/internal/domain/models"
	"BioWatch/internal/services/baseline"
)

func testProfile() *baseline.Profile {
	return &baseline.Profile{
		TempError: baseline.ChannelStats{Mean: fp(0.0), Std: fp(0.2)},
		PHError:   baseline.ChannelStats{Mean: fp(0.0), Std: fp(0.05)},
		RPMError:  baseline.ChannelStats{Mean: fp(0.0), Std: fp(5.0)},
		Specs: baseline.Specs{
			TemperatureTolC: 0.6,
			PHTol:           0.25,
			RPMTol:          20.0,
			ZTol:            3.0,
		},
	}
}

func errRecord(tempErr, phErr, rpmErr *float64) *models.TelemetryRecord {
	return &models.TelemetryRecord{TempErr: tempErr, PHErr: phErr, RPMErr: rpmErr}
}

func TestClassifierWithinTolerance(t *testing.T) {
	p := testProfile()
	c := NewClassifier(p, ResolveTolerances(p.Specs, fp(1.0)))

	res := c.Evaluate(errRecord(fp(0.8), fp(0.1), fp(5)))
	if res.Anomalous {
		t.Fatalf("temp error 0.8 under override tol 1.0 must not flag: %s", res.Reason)
	}
	if !strings.Contains(res.Reason, WithinTolerance) {
		t.Fatalf("reason missing marker: %s", res.Reason)
	}
}

func TestClassifierFlagsEachChannel(t *testing.T) {
	p := testProfile()
	c := NewClassifier(p, ResolveTolerances(p.Specs, fp(1.0)))

	cases := []struct {
		name string
		rec  *models.TelemetryRecord
		want string
	}{
		{"temp", errRecord(fp(2.2), nil, nil), "temp_err +2.20 > tol 1.00"},
		{"temp_negative", errRecord(fp(-2.2), nil, nil), "temp_err -2.20 > tol 1.00"},
		{"ph", errRecord(nil, fp(0.4), nil), "ph_err +0.40 > tol 0.25"},
		{"rpm", errRecord(nil, nil, fp(-45)), "rpm_err -45.0 > tol 20.0"},
	}
	for _, c2 := range cases {
		res := c.Evaluate(c2.rec)
		if !res.Anomalous {
			t.Fatalf("%s: expected flag", c2.name)
		}
		if !strings.Contains(res.Reason, c2.want) {
			t.Fatalf("%s: reason %q missing %q", c2.name, res.Reason, c2.want)
		}
	}
}

func TestClassifierSeverityIsMaxAbsZ(t *testing.T) {
	p := testProfile()
	c := NewClassifier(p, ResolveTolerances(p.Specs, fp(1.0)))

	// temp z = 0.4/0.2 = 2, ph z = -0.2/0.05 = -4, rpm z = 10/5 = 2
	res := c.Evaluate(errRecord(fp(0.4), fp(-0.2), fp(10)))
	if math.Abs(res.Score-4.0) > 1e-9 {
		t.Fatalf("score %v, want 4.0", res.Score)
	}
}

func TestClassifierSeverityNeverGates(t *testing.T) {
	p := testProfile()
	c := NewClassifier(p, ResolveTolerances(p.Specs, fp(1.0)))

	// Huge z-score but all errors inside tolerance.
	res := c.Evaluate(errRecord(fp(0.9), fp(0.2), fp(15)))
	if res.Anomalous {
		t.Fatalf("z-score must not trigger the anomaly flag")
	}
	if res.Score <= 3.0 {
		t.Fatalf("expected diagnostic score above z_tol, got %v", res.Score)
	}
}

func TestClassifierAbsentOperandsScoreZero(t *testing.T) {
	p := testProfile()
	p.PHError.Std = nil
	c := NewClassifier(p, ResolveTolerances(p.Specs, fp(1.0)))

	res := c.Evaluate(errRecord(nil, fp(0.1), nil))
	if res.Anomalous {
		t.Fatalf("absent errors must not flag")
	}
	if res.Score != 0 {
		t.Fatalf("absent/zero-std channels contribute 0, got %v", res.Score)
	}
}

func TestResolveTolerancesOverride(t *testing.T) {
	specs := baseline.Specs{TemperatureTolC: 0.6, PHTol: 0.3, RPMTol: 25, ZTol: 3}

	with := ResolveTolerances(specs, fp(1.0))
	if with.Temp != 1.0 {
		t.Fatalf("override not applied: %v", with.Temp)
	}

	without := ResolveTolerances(specs, nil)
	if without.Temp != 0.6 {
		t.Fatalf("trained temperature tolerance not honored: %v", without.Temp)
	}
	if without.PH != 0.3 || without.RPM != 25 {
		t.Fatalf("unexpected tolerances: %+v", without)
	}
}

func TestResolveTolerancesEmptySpecsFallsBackToFloors(t *testing.T) {
	got := ResolveTolerances(baseline.Specs{}, nil)
	if got.Temp != baseline.DefaultTempFloor || got.PH != baseline.DefaultPHFloor || got.RPM != baseline.DefaultRPMFloor {
		t.Fatalf("unexpected fallback tolerances: %+v", got)
	}
}
