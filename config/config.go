// Package config provides the engine's own configuration: defaults,
// YAML file loading, and environment overrides, in that precedence order.
package config

// Config is the complete engine configuration.
type Config struct {
	// Executor configures workflow execution.
	Executor ExecutorConfig `yaml:"executor"`

	// Checkpoint configures durable state snapshots.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Metrics configures Prometheus metric collection.
	Metrics MetricsConfig `yaml:"metrics"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ExecutorConfig configures workflow execution.
type ExecutorConfig struct {
	// MaxParallel caps concurrent step dispatch within one batch.
	// Zero means no cap.
	MaxParallel int `yaml:"max_parallel"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	// Backend is one of "file", "memory", "redis", "database".
	Backend string `yaml:"backend"`

	// Dir is the snapshot directory for the file backend. Empty selects
	// the per-user default under workflows/checkpoints.
	Dir string `yaml:"dir"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`

	// Database configures the database backend.
	Database DatabaseConfig `yaml:"database"`
}

// RedisConfig configures the Redis checkpoint backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig configures the database checkpoint backend.
type DatabaseConfig struct {
	// Driver is the database driver, currently "sqlite".
	Driver string `yaml:"driver"`
	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metric collection.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Executor: ExecutorConfig{
			MaxParallel: 0,
		},
		Checkpoint: CheckpointConfig{
			Backend: "file",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Database: DatabaseConfig{
				Driver: "sqlite",
				DSN:    "stepflow.db",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "stepflow",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "stepflow",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}
