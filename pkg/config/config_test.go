package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
environment: test
detector:
  stream: single_fault
kafka:
  brokers:
    - localhost:9092
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Detector.Consecutive != 3 {
		t.Errorf("consecutive default = %d, want 3", cfg.Detector.Consecutive)
	}
	if cfg.Detector.GracePeriod != 10*time.Second {
		t.Errorf("grace_period default = %v, want 10s", cfg.Detector.GracePeriod)
	}
	if cfg.Detector.FaultsKey != "last_active" {
		t.Errorf("faults_key default = %q", cfg.Detector.FaultsKey)
	}
	if cfg.Detector.ZTol != 3.0 {
		t.Errorf("z_tol default = %v", cfg.Detector.ZTol)
	}
	if cfg.Recorder.Backend != "csv" {
		t.Errorf("recorder backend default = %q", cfg.Recorder.Backend)
	}
	if cfg.Recorder.CSVPath != "detection_log_single_fault.csv" {
		t.Errorf("recorder csv_path default = %q", cfg.Recorder.CSVPath)
	}
	if cfg.Baseline.Backend != "csv" {
		t.Errorf("baseline backend default = %q", cfg.Baseline.Backend)
	}
}

func TestBaselineBackendFollowsRecorder(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
recorder:
  backend: clickhouse
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Baseline.Backend != "clickhouse" {
		t.Errorf("baseline backend = %q, want clickhouse", cfg.Baseline.Backend)
	}
}

func TestTelemetryTopic(t *testing.T) {
	var cfg Config
	cfg.Detector.Stream = "three_faults"
	if got := cfg.TelemetryTopic(); got != "bioreactor_sim.three_faults.telemetry.summary" {
		t.Errorf("topic = %q", got)
	}
}

func TestTemperatureOverrideDefaultsOn(t *testing.T) {
	// With no temperature_override block the fixed operational tolerance
	// applies, not the trained value.
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := cfg.TemperatureOverride()
	if got == nil || *got != 1.0 {
		t.Fatalf("override = %v, want 1.0", got)
	}
}

func TestTemperatureOverrideEnabledWithoutValue(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
detector:
  stream: single_fault
  temperature_override:
    enabled: true
kafka:
  brokers: [localhost:9092]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := cfg.TemperatureOverride()
	if got == nil || *got != 1.0 {
		t.Fatalf("override = %v, want default 1.0, never 0", got)
	}
}

func TestTemperatureOverrideExplicit(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
detector:
  stream: single_fault
  temperature_override:
    enabled: false
kafka:
  brokers: [localhost:9092]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.TemperatureOverride(); got != nil {
		t.Fatalf("disabled override = %v, want nil (trained value)", got)
	}

	cfg, err = Load(writeConfig(t, `
environment: test
detector:
  stream: single_fault
  temperature_override:
    enabled: true
    value: 0.8
kafka:
  brokers: [localhost:9092]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := cfg.TemperatureOverride()
	if got == nil || *got != 0.8 {
		t.Fatalf("override = %v, want 0.8", got)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing_environment", `
detector:
  stream: nofaults
kafka:
  brokers: [localhost:9092]
`},
		{"missing_stream", `
environment: test
kafka:
  brokers: [localhost:9092]
`},
		{"no_brokers", `
environment: test
detector:
  stream: nofaults
`},
		{"bad_recorder_backend", minimalYAML + `
recorder:
  backend: sqlite
`},
		{"negative_grace", `
environment: test
detector:
  stream: nofaults
  grace_period: -5s
kafka:
  brokers: [localhost:9092]
`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("STREAM", "variable_setpoints")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CONSEC_REQUIRED", "5")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Detector.Stream != "variable_setpoints" {
		t.Errorf("stream = %q", cfg.Detector.Stream)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Detector.Consecutive != 5 {
		t.Errorf("consecutive = %d, want 5", cfg.Detector.Consecutive)
	}
}
