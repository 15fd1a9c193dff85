package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BioWatch/internal/domain/models"
	pkgch "BioWatch/pkg/clickhouse"
	applogger "BioWatch/pkg/logger"
)

// CHDetectionLog implements Recorder backed by ClickHouse.
type CHDetectionLog struct {
	db     *sql.DB
	stream string
	l      *applogger.Logger
}

func NewCHDetectionLog(ch *pkgch.Client, stream string) *CHDetectionLog {
	return &CHDetectionLog{db: ch.DB(), stream: stream}
}

// SetLogger injects a structured logger.
func (s *CHDetectionLog) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHDetectionLog) Append(ctx context.Context, row *models.DetectionRow) error {
	const q = `
        INSERT INTO biowatch.detection_log (
            time, stream,
            temp, temp_sp, temp_err,
            ph, ph_sp, ph_err,
            rpm, rpm_sp, rpm_err,
            heater_pwm, motor_pwm, acid_pwm, base_pwm,
            faults_active, anomaly_flag, raw_anomaly, reason, score,
            tp, tn, fp, fn
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		row.Time, s.stream,
		row.Temp, row.TempSP, row.TempErr,
		row.PH, row.PHSP, row.PHErr,
		row.RPM, row.RPMSP, row.RPMErr,
		row.HeaterPWM, row.MotorPWM, row.AcidPWM, row.BasePWM,
		strings.Join(row.Faults, ";"), boolFlag(row.Final), boolFlag(row.Raw), row.Reason, row.Score,
		uint64(row.TP), uint64(row.TN), uint64(row.FP), uint64(row.FN),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse detection_log insert error",
				applogger.String("stream", s.stream),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append detection row: %w", err)
	}
	return nil
}

func (s *CHDetectionLog) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.DetectionRow, error) {
	start := time.Now()
	const q = `
        SELECT time,
            temp, temp_sp, temp_err,
            ph, ph_sp, ph_err,
            rpm, rpm_sp, rpm_err,
            heater_pwm, motor_pwm, acid_pwm, base_pwm,
            faults_active, anomaly_flag, raw_anomaly, reason, score,
            tp, tn, fp, fn
        FROM biowatch.detection_log
        WHERE stream = ? AND time >= ? AND time <= ?
        ORDER BY time ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, s.stream, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse detection_log query error",
				applogger.String("stream", s.stream),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query detection log: %w", err)
	}
	defer rows.Close()

	out := make([]*models.DetectionRow, 0, 256)
	for rows.Next() {
		var (
			r      models.DetectionRow
			faults string
			final  uint8
			raw    uint8
			tp     uint64
			tn     uint64
			fp     uint64
			fn     uint64
		)
		if err := rows.Scan(&r.Time,
			&r.Temp, &r.TempSP, &r.TempErr,
			&r.PH, &r.PHSP, &r.PHErr,
			&r.RPM, &r.RPMSP, &r.RPMErr,
			&r.HeaterPWM, &r.MotorPWM, &r.AcidPWM, &r.BasePWM,
			&faults, &final, &raw, &r.Reason, &r.Score,
			&tp, &tn, &fp, &fn,
		); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse detection_log scan error",
					applogger.String("stream", s.stream),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan detection row: %w", err)
		}
		if faults != "" {
			r.Faults = strings.Split(faults, ";")
		}
		r.Final = final != 0
		r.Raw = raw != 0
		r.TP, r.TN, r.FP, r.FN = int(tp), int(tn), int(fp), int(fn)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse detection_log query ok",
			applogger.String("stream", s.stream),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Close is a no-op; the underlying pool is owned by the clickhouse client.
func (s *CHDetectionLog) Close() error { return nil }

func boolFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
