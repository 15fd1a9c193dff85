package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BioWatch/internal/domain/models"
	pkgch "BioWatch/pkg/clickhouse"
	applogger "BioWatch/pkg/logger"
)

// CHBaselineStore implements BaselineStore backed by ClickHouse.
type CHBaselineStore struct {
	db     *sql.DB
	stream string
	l      *applogger.Logger
}

func NewCHBaselineStore(ch *pkgch.Client, stream string) *CHBaselineStore {
	return &CHBaselineStore{db: ch.DB(), stream: stream}
}

// SetLogger injects a structured logger.
func (s *CHBaselineStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBaselineStore) Append(ctx context.Context, rec *models.TelemetryRecord) error {
	const q = `
        INSERT INTO biowatch.baseline_rows (
            time, stream,
            temp, temp_sp, temp_err,
            ph, ph_sp, ph_err,
            rpm, rpm_sp, rpm_err,
            heater_pwm, motor_pwm, acid_pwm, base_pwm
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp, s.stream,
		rec.Temp, rec.TempSP, rec.TempErr,
		rec.PH, rec.PHSP, rec.PHErr,
		rec.RPM, rec.RPMSP, rec.RPMErr,
		rec.HeaterPWM, rec.MotorPWM, rec.AcidPWM, rec.BasePWM,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse baseline_rows insert error",
				applogger.String("stream", s.stream),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append baseline row: %w", err)
	}
	return nil
}

func (s *CHBaselineStore) LoadAll(ctx context.Context) ([]*models.TelemetryRecord, error) {
	start := time.Now()
	const q = `
        SELECT time,
            temp, temp_sp, temp_err,
            ph, ph_sp, ph_err,
            rpm, rpm_sp, rpm_err,
            heater_pwm, motor_pwm, acid_pwm, base_pwm
        FROM biowatch.baseline_rows
        WHERE stream = ?
        ORDER BY time ASC
    `
	rows, err := s.db.QueryContext(ctx, q, s.stream)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse baseline_rows query error",
				applogger.String("stream", s.stream),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load baseline rows: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TelemetryRecord, 0, 1024)
	for rows.Next() {
		var r models.TelemetryRecord
		if err := rows.Scan(&r.Timestamp,
			&r.Temp, &r.TempSP, &r.TempErr,
			&r.PH, &r.PHSP, &r.PHErr,
			&r.RPM, &r.RPMSP, &r.RPMErr,
			&r.HeaterPWM, &r.MotorPWM, &r.AcidPWM, &r.BasePWM,
		); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse baseline_rows load ok",
			applogger.String("stream", s.stream),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Close is a no-op; the underlying pool is owned by the clickhouse client.
func (s *CHBaselineStore) Close() error { return nil }
