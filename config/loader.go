package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Loader assembles a Config in precedence order: defaults, then the YAML
// file (when one is configured and present), then environment variables.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("stepflow.yaml").
//	    WithEnvPrefix("STEPFLOW").
//	    Load()
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with no file and the STEPFLOW env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "STEPFLOW"}
}

// WithConfigPath sets the YAML file to load.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load assembles the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
			}
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides fields from <prefix>_SECTION_FIELD variables.
func (l *Loader) applyEnv(cfg *Config) {
	l.envInt("EXECUTOR_MAX_PARALLEL", &cfg.Executor.MaxParallel)

	l.envString("CHECKPOINT_BACKEND", &cfg.Checkpoint.Backend)
	l.envString("CHECKPOINT_DIR", &cfg.Checkpoint.Dir)
	l.envString("CHECKPOINT_REDIS_ADDR", &cfg.Checkpoint.Redis.Addr)
	l.envString("CHECKPOINT_REDIS_PASSWORD", &cfg.Checkpoint.Redis.Password)
	l.envInt("CHECKPOINT_REDIS_DB", &cfg.Checkpoint.Redis.DB)
	l.envString("CHECKPOINT_DATABASE_DRIVER", &cfg.Checkpoint.Database.Driver)
	l.envString("CHECKPOINT_DATABASE_DSN", &cfg.Checkpoint.Database.DSN)

	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_FORMAT", &cfg.Log.Format)

	l.envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	l.envString("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	l.envBool("TELEMETRY_ENABLED", &cfg.Telemetry.Enabled)
	l.envString("TELEMETRY_SERVICE_NAME", &cfg.Telemetry.ServiceName)
	l.envString("TELEMETRY_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	l.envFloat("TELEMETRY_SAMPLE_RATE", &cfg.Telemetry.SampleRate)
}

func (l *Loader) lookup(key string) (string, bool) {
	return os.LookupEnv(l.envPrefix + "_" + key)
}

func (l *Loader) envString(key string, target *string) {
	if val, ok := l.lookup(key); ok {
		*target = val
	}
}

func (l *Loader) envInt(key string, target *int) {
	if val, ok := l.lookup(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*target = n
		}
	}
}

func (l *Loader) envBool(key string, target *bool) {
	if val, ok := l.lookup(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		}
	}
}

func (l *Loader) envFloat(key string, target *float64) {
	if val, ok := l.lookup(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*target = f
		}
	}
}
