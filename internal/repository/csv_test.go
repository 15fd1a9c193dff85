package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"BioWatch/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func TestCSVDetectionLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection_log.csv")
	log, err := NewCSVDetectionLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := []*models.DetectionRow{
		{
			Time: base,
			Temp: fp(37.2), TempSP: fp(37.0), TempErr: fp(0.2),
			PH: fp(7.0), PHSP: fp(7.0), PHErr: fp(0.0),
			RPM: fp(500), RPMSP: fp(500), RPMErr: fp(0),
			HeaterPWM: fp(0.4),
			Reason:    "within_tolerance",
			TN:        1,
		},
		{
			Time:    base.Add(time.Second),
			TempErr: fp(2.5),
			Faults:  []string{"heater_stuck", "sensor_drift"},
			Final:   true, Raw: true,
			Reason: "temp_err +2.50 > tol 1.00",
			Score:  12.5,
			TP:     1, TN: 1,
		},
	}
	ctx := context.Background()
	for _, r := range rows {
		if err := log.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := log.Query(ctx, base, base.Add(time.Minute), 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	r := got[1]
	if !r.Final || !r.Raw {
		t.Error("flags lost in round trip")
	}
	if r.Reason != "temp_err +2.50 > tol 1.00" {
		t.Errorf("reason = %q", r.Reason)
	}
	if r.Score != 12.5 || r.TP != 1 || r.TN != 1 {
		t.Errorf("score/counts = %v %d %d", r.Score, r.TP, r.TN)
	}
	if len(r.Faults) != 2 || r.Faults[1] != "sensor_drift" {
		t.Errorf("faults = %v", r.Faults)
	}
	if r.TempErr == nil || *r.TempErr != 2.5 {
		t.Errorf("temp_err = %v", r.TempErr)
	}
	if r.Temp != nil {
		t.Errorf("absent temp must stay nil, got %v", *r.Temp)
	}
	if len(got[0].Faults) != 0 {
		t.Errorf("fault-free row grew faults: %v", got[0].Faults)
	}

	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen appends without duplicating the header.
	log2, err := NewCSVDetectionLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer log2.Close()
	if err := log2.Append(ctx, &models.DetectionRow{Time: base.Add(2 * time.Second), Reason: "within_tolerance", TN: 2}); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	got, err = log2.Query(ctx, base, base.Add(time.Minute), 0)
	if err != nil {
		t.Fatalf("query after reopen: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows after reopen, want 3", len(got))
	}
}

func TestCSVDetectionLogQueryWindowAndLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection_log.csv")
	log, err := NewCSVDetectionLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		row := &models.DetectionRow{Time: base.Add(time.Duration(i) * time.Second), Reason: "within_tolerance"}
		if err := log.Append(ctx, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := log.Query(ctx, base.Add(2*time.Second), base.Add(5*time.Second), 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("window returned %d rows, want 4", len(got))
	}

	got, err = log.Query(ctx, base, base.Add(time.Minute), 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit returned %d rows, want 3", len(got))
	}
}

func TestCSVBaselineStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.csv")
	store, err := NewCSVBaselineStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	recs := []*models.TelemetryRecord{
		{
			Timestamp: base,
			Temp:      fp(37.0), TempSP: fp(37.0), TempErr: fp(0.0),
			PH: fp(7.01), PHSP: fp(7.0), PHErr: fp(0.01),
			RPM: fp(498), RPMSP: fp(500), RPMErr: fp(-2),
			HeaterPWM: fp(0.42), MotorPWM: fp(0.6), AcidPWM: fp(0), BasePWM: fp(0.02),
		},
		{Timestamp: base.Add(time.Second), Temp: fp(37.1), TempSP: fp(37.0)},
	}
	for _, r := range recs {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].PHErr == nil || *got[0].PHErr != 0.01 {
		t.Errorf("ph_error = %v", got[0].PHErr)
	}
	if got[1].RPM != nil {
		t.Errorf("absent rpm must stay nil")
	}
	if !got[1].Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("timestamp = %v", got[1].Timestamp)
	}
}
