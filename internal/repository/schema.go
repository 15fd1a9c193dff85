package repository

// Schema returns the DDL statements the ClickHouse-backed stores need.
// All statements are idempotent.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS biowatch`,
		`CREATE TABLE IF NOT EXISTS biowatch.detection_log (
			time          DateTime64(3),
			stream        LowCardinality(String),
			temp          Nullable(Float64),
			temp_sp       Nullable(Float64),
			temp_err      Nullable(Float64),
			ph            Nullable(Float64),
			ph_sp         Nullable(Float64),
			ph_err        Nullable(Float64),
			rpm           Nullable(Float64),
			rpm_sp        Nullable(Float64),
			rpm_err       Nullable(Float64),
			heater_pwm    Nullable(Float64),
			motor_pwm     Nullable(Float64),
			acid_pwm      Nullable(Float64),
			base_pwm      Nullable(Float64),
			faults_active String,
			anomaly_flag  UInt8,
			raw_anomaly   UInt8,
			reason        String,
			score         Float64,
			tp            UInt64,
			tn            UInt64,
			fp            UInt64,
			fn            UInt64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(time)
		ORDER BY (stream, time)`,
		`CREATE TABLE IF NOT EXISTS biowatch.baseline_rows (
			time       DateTime64(3),
			stream     LowCardinality(String),
			temp       Nullable(Float64),
			temp_sp    Nullable(Float64),
			temp_err   Nullable(Float64),
			ph         Nullable(Float64),
			ph_sp      Nullable(Float64),
			ph_err     Nullable(Float64),
			rpm        Nullable(Float64),
			rpm_sp     Nullable(Float64),
			rpm_err    Nullable(Float64),
			heater_pwm Nullable(Float64),
			motor_pwm  Nullable(Float64),
			acid_pwm   Nullable(Float64),
			base_pwm   Nullable(Float64)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(time)
		ORDER BY (stream, time)`,
	}
}
