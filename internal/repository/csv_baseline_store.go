package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"BioWatch/internal/domain/models"
)

var baselineHeader = []string{
	"time",
	"temperature", "temperature_setpoint", "temp_error",
	"pH", "pH_setpoint", "ph_error",
	"rpm", "rpm_setpoint", "rpm_error",
	"heater_pwm", "motor_pwm", "acid_pwm", "base_pwm",
}

// CSVBaselineStore implements BaselineStore backed by a local CSV file. The
// trainer reads the same file the collector writes, so both ends share one
// column layout.
type CSVBaselineStore struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

func NewCSVBaselineStore(path string) (*CSVBaselineStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}

	s := &CSVBaselineStore{path: path, f: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat baseline store: %w", err)
	}
	if info.Size() == 0 {
		if err := s.w.Write(baselineHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write baseline header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush baseline header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVBaselineStore) Append(_ context.Context, rec *models.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		rec.Timestamp.Format(time.RFC3339Nano),
		fmtOpt(rec.Temp), fmtOpt(rec.TempSP), fmtOpt(rec.TempErr),
		fmtOpt(rec.PH), fmtOpt(rec.PHSP), fmtOpt(rec.PHErr),
		fmtOpt(rec.RPM), fmtOpt(rec.RPMSP), fmtOpt(rec.RPMErr),
		fmtOpt(rec.HeaterPWM), fmtOpt(rec.MotorPWM), fmtOpt(rec.AcidPWM), fmtOpt(rec.BasePWM),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("append baseline row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush baseline row: %w", err)
	}
	return nil
}

func (s *CSVBaselineStore) LoadAll(_ context.Context) ([]*models.TelemetryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(baselineHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read baseline store: %w", err)
	}

	out := make([]*models.TelemetryRecord, 0, 1024)
	for i, row := range records {
		if i == 0 {
			continue // header
		}
		ts, err := time.Parse(time.RFC3339Nano, row[0])
		if err != nil {
			return nil, fmt.Errorf("parse row time %q: %w", row[0], err)
		}
		out = append(out, &models.TelemetryRecord{
			Timestamp: ts,
			Temp:      parseOpt(row[1]),
			TempSP:    parseOpt(row[2]),
			TempErr:   parseOpt(row[3]),
			PH:        parseOpt(row[4]),
			PHSP:      parseOpt(row[5]),
			PHErr:     parseOpt(row[6]),
			RPM:       parseOpt(row[7]),
			RPMSP:     parseOpt(row[8]),
			RPMErr:    parseOpt(row[9]),
			HeaterPWM: parseOpt(row[10]),
			MotorPWM:  parseOpt(row[11]),
			AcidPWM:   parseOpt(row[12]),
			BasePWM:   parseOpt(row[13]),
		})
	}
	return out, nil
}

func (s *CSVBaselineStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.f.Close()
}
