package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "file", cfg.Checkpoint.Backend)
	assert.Equal(t, "localhost:6379", cfg.Checkpoint.Redis.Addr)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "stepflow", cfg.Metrics.Namespace)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 0, cfg.Executor.MaxParallel)
}

func TestLoader_NoFile(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
executor:
  max_parallel: 4
checkpoint:
  backend: redis
  redis:
    addr: redis.internal:6379
    db: 2
log:
  level: debug
  format: console
`), 0644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Executor.MaxParallel)
	assert.Equal(t, "redis", cfg.Checkpoint.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Checkpoint.Redis.Addr)
	assert.Equal(t, 2, cfg.Checkpoint.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// Untouched sections keep their defaults.
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Database.Driver)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checkpoint: ["), 0644))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("STEPFLOW_EXECUTOR_MAX_PARALLEL", "8")
	t.Setenv("STEPFLOW_CHECKPOINT_BACKEND", "memory")
	t.Setenv("STEPFLOW_LOG_LEVEL", "warn")
	t.Setenv("STEPFLOW_METRICS_ENABLED", "false")
	t.Setenv("STEPFLOW_TELEMETRY_SAMPLE_RATE", "0.25")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Executor.MaxParallel)
	assert.Equal(t, "memory", cfg.Checkpoint.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
}

func TestLoader_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644))
	t.Setenv("STEPFLOW_LOG_LEVEL", "error")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_LEVEL", "debug")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_MalformedEnvValueIsIgnored(t *testing.T) {
	t.Setenv("STEPFLOW_EXECUTOR_MAX_PARALLEL", "lots")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Executor.MaxParallel)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger, err = NewLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = NewLogger(LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
