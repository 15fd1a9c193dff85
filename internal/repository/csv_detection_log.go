package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"BioWatch/internal/domain/models"
)

var detectionHeader = []string{
	"time",
	"temp", "temp_sp", "temp_err",
	"ph", "ph_sp", "ph_err",
	"rpm", "rpm_sp", "rpm_err",
	"heater_pwm", "motor_pwm", "acid_pwm", "base_pwm",
	"faults_active", "anomaly_flag", "raw_anomaly", "reason",
	"score", "TP", "TN", "FP", "FN",
}

// CSVDetectionLog implements Recorder backed by a local CSV file. One row is
// flushed per append so a crash loses at most the current record.
type CSVDetectionLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

func NewCSVDetectionLog(path string) (*CSVDetectionLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open detection log: %w", err)
	}

	s := &CSVDetectionLog{path: path, f: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat detection log: %w", err)
	}
	if info.Size() == 0 {
		if err := s.w.Write(detectionHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write detection header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush detection header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVDetectionLog) Append(_ context.Context, row *models.DetectionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := []string{
		row.Time.Format(time.RFC3339Nano),
		fmtOpt(row.Temp), fmtOpt(row.TempSP), fmtOpt(row.TempErr),
		fmtOpt(row.PH), fmtOpt(row.PHSP), fmtOpt(row.PHErr),
		fmtOpt(row.RPM), fmtOpt(row.RPMSP), fmtOpt(row.RPMErr),
		fmtOpt(row.HeaterPWM), fmtOpt(row.MotorPWM), fmtOpt(row.AcidPWM), fmtOpt(row.BasePWM),
		strings.Join(row.Faults, ";"),
		strconv.FormatBool(row.Final),
		strconv.FormatBool(row.Raw),
		row.Reason,
		strconv.FormatFloat(row.Score, 'f', -1, 64),
		strconv.Itoa(row.TP), strconv.Itoa(row.TN), strconv.Itoa(row.FP), strconv.Itoa(row.FN),
	}
	if err := s.w.Write(rec); err != nil {
		return fmt.Errorf("append detection row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush detection row: %w", err)
	}
	return nil
}

func (s *CSVDetectionLog) Query(_ context.Context, from, to time.Time, limit int) ([]*models.DetectionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open detection log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(detectionHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read detection log: %w", err)
	}

	out := make([]*models.DetectionRow, 0, 256)
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse row time %q: %w", rec[0], err)
		}
		if ts.Before(from) || ts.After(to) {
			continue
		}
		row := &models.DetectionRow{
			Time:      ts,
			Temp:      parseOpt(rec[1]),
			TempSP:    parseOpt(rec[2]),
			TempErr:   parseOpt(rec[3]),
			PH:        parseOpt(rec[4]),
			PHSP:      parseOpt(rec[5]),
			PHErr:     parseOpt(rec[6]),
			RPM:       parseOpt(rec[7]),
			RPMSP:     parseOpt(rec[8]),
			RPMErr:    parseOpt(rec[9]),
			HeaterPWM: parseOpt(rec[10]),
			MotorPWM:  parseOpt(rec[11]),
			AcidPWM:   parseOpt(rec[12]),
			BasePWM:   parseOpt(rec[13]),
			Reason:    rec[17],
		}
		if rec[14] != "" {
			row.Faults = strings.Split(rec[14], ";")
		}
		row.Final, _ = strconv.ParseBool(rec[15])
		row.Raw, _ = strconv.ParseBool(rec[16])
		row.Score, _ = strconv.ParseFloat(rec[18], 64)
		row.TP, _ = strconv.Atoi(rec[19])
		row.TN, _ = strconv.Atoi(rec[20])
		row.FP, _ = strconv.Atoi(rec[21])
		row.FN, _ = strconv.Atoi(rec[22])
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *CSVDetectionLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.f.Close()
}

func fmtOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOpt(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
