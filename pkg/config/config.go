package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTempOverride is the fixed operational temperature tolerance, tuned
// against the fault-injection stream to keep false positives down. It applies
// unless temperature_override.enabled is explicitly set to false.
const DefaultTempOverride = 1.0

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Detector struct {
		Stream      string        `yaml:"stream"`       // nofaults | single_fault | three_faults | variable_setpoints
		Consecutive int           `yaml:"consecutive"`  // raw anomalies required before flagging
		GracePeriod time.Duration `yaml:"grace_period"` // suppression window after a setpoint change
		FaultsKey   string        `yaml:"faults_key"`   // field inside "faults" holding active labels
		ProfilePath string        `yaml:"profile_path"`
		ZTol        float64       `yaml:"z_tol"`
		Floors      struct {
			Temperature float64 `yaml:"temperature"`
			PH          float64 `yaml:"ph"`
			RPM         float64 `yaml:"rpm"`
		} `yaml:"floors"`
		TemperatureOverride struct {
			Enabled *bool   `yaml:"enabled"` // nil means on (operational default)
			Value   float64 `yaml:"value"`
		} `yaml:"temperature_override"`
	} `yaml:"detector"`
	Recorder struct {
		Backend string `yaml:"backend"` // csv | clickhouse
		CSVPath string `yaml:"csv_path"`
	} `yaml:"recorder"`
	Baseline struct {
		Backend string `yaml:"backend"` // csv | clickhouse
		CSVPath string `yaml:"csv_path"`
	} `yaml:"baseline"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Gateway struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"gateway"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
}

// TelemetryTopic returns the Kafka topic for the configured stream, the
// dotted rendering of the simulator's path-style topic.
func (c *Config) TelemetryTopic() string {
	return fmt.Sprintf("bioreactor_sim.%s.telemetry.summary", c.Detector.Stream)
}

// TemperatureOverride returns the fixed temperature tolerance, or nil when
// the trained value should be used.
func (c *Config) TemperatureOverride() *float64 {
	o := c.Detector.TemperatureOverride
	if o.Enabled != nil && !*o.Enabled {
		return nil
	}
	v := o.Value
	if v == 0 {
		v = DefaultTempOverride
	}
	return &v
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("STREAM"); v != "" {
		c.Detector.Stream = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("GATEWAY_WS_URL"); v != "" {
		c.Gateway.WebSocketURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PROFILE_PATH"); v != "" {
		c.Detector.ProfilePath = v
	}
	if v := os.Getenv("CONSEC_REQUIRED"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Detector.Consecutive = n
		}
	}

	return c, c.Validate()
}

func (c *Config) applyDefaults() {
	if c.Detector.Consecutive == 0 {
		c.Detector.Consecutive = 3
	}
	if c.Detector.GracePeriod == 0 {
		c.Detector.GracePeriod = 10 * time.Second
	}
	if c.Detector.FaultsKey == "" {
		c.Detector.FaultsKey = "last_active"
	}
	if c.Detector.ProfilePath == "" {
		c.Detector.ProfilePath = "baseline_stats.json"
	}
	if c.Detector.ZTol == 0 {
		c.Detector.ZTol = 3.0
	}
	if c.Detector.Floors.Temperature == 0 {
		c.Detector.Floors.Temperature = 0.5
	}
	if c.Detector.Floors.PH == 0 {
		c.Detector.Floors.PH = 0.25
	}
	if c.Detector.Floors.RPM == 0 {
		c.Detector.Floors.RPM = 20.0
	}
	if c.Detector.TemperatureOverride.Enabled == nil {
		on := true
		c.Detector.TemperatureOverride.Enabled = &on
	}
	if c.Detector.TemperatureOverride.Value == 0 {
		c.Detector.TemperatureOverride.Value = DefaultTempOverride
	}
	if c.Recorder.Backend == "" {
		c.Recorder.Backend = "csv"
	}
	if c.Recorder.CSVPath == "" {
		c.Recorder.CSVPath = fmt.Sprintf("detection_log_%s.csv", c.Detector.Stream)
	}
	if c.Baseline.Backend == "" {
		c.Baseline.Backend = c.Recorder.Backend
	}
	if c.Baseline.CSVPath == "" {
		c.Baseline.CSVPath = "baseline.csv"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Detector.Stream == "" {
		return fmt.Errorf("detector.stream is required")
	}
	if c.Detector.Consecutive < 1 {
		return fmt.Errorf("detector.consecutive must be >= 1, got %d", c.Detector.Consecutive)
	}
	if c.Detector.GracePeriod < 0 {
		return fmt.Errorf("detector.grace_period must not be negative")
	}
	if c.Recorder.Backend != "csv" && c.Recorder.Backend != "clickhouse" {
		return fmt.Errorf("recorder.backend must be 'csv' or 'clickhouse', got '%s'", c.Recorder.Backend)
	}
	if c.Baseline.Backend != "csv" && c.Baseline.Backend != "clickhouse" {
		return fmt.Errorf("baseline.backend must be 'csv' or 'clickhouse', got '%s'", c.Baseline.Backend)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	return nil
}
