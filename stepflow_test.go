package stepflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/stepflow/checkpoint"
	"github.com/BaSui01/stepflow/config"
	"github.com/BaSui01/stepflow/testutil/mocks"
	"github.com/BaSui01/stepflow/workflow"
)

func TestNew_RunsWorkflowEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Checkpoint.Backend = "memory"
	// The prometheus default registry is process-global; a second New in
	// this binary would collide on re-registration.
	cfg.Metrics.Enabled = false

	eng, err := New(cfg, mocks.NewBackend())
	require.NoError(t, err)

	def := &workflow.Definition{
		Name:    "pipeline",
		Version: "1.0",
		Steps: []workflow.Step{
			{ID: "fetch", Agent: "fetcher"},
			{ID: "transform", Agent: "transformer", DependsOn: []string{"fetch"}},
		},
	}
	res, err := eng.Execute(context.Background(), def)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.StepsCompleted)

	// Telemetry is disabled by default; Close still flushes cleanly.
	require.NoError(t, eng.Close(context.Background()))
}

func TestNew_InvalidLogConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "loud"

	_, err := New(cfg, mocks.NewBackend())
	require.Error(t, err)
}

func TestNewStore(t *testing.T) {
	t.Run("file backend", func(t *testing.T) {
		store, err := NewStore(config.CheckpointConfig{Backend: "file", Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &checkpoint.FileStore{}, store)
	})

	t.Run("empty backend defaults to file", func(t *testing.T) {
		store, err := NewStore(config.CheckpointConfig{Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &checkpoint.FileStore{}, store)
	})

	t.Run("memory backend", func(t *testing.T) {
		store, err := NewStore(config.CheckpointConfig{Backend: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &checkpoint.MemoryStore{}, store)
	})

	t.Run("redis backend", func(t *testing.T) {
		store, err := NewStore(config.CheckpointConfig{
			Backend: "redis",
			Redis:   config.RedisConfig{Addr: "localhost:6379"},
		})
		require.NoError(t, err)
		assert.IsType(t, &checkpoint.RedisStore{}, store)
	})

	t.Run("database backend", func(t *testing.T) {
		store, err := NewStore(config.CheckpointConfig{
			Backend: "database",
			Database: config.DatabaseConfig{
				Driver: "sqlite",
				DSN:    filepath.Join(t.TempDir(), "stepflow.db"),
			},
		})
		require.NoError(t, err)
		assert.IsType(t, &checkpoint.GormStore{}, store)
	})

	t.Run("unsupported database driver", func(t *testing.T) {
		_, err := NewStore(config.CheckpointConfig{
			Backend:  "database",
			Database: config.DatabaseConfig{Driver: "oracle"},
		})
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewStore(config.CheckpointConfig{Backend: "tape"})
		assert.Error(t, err)
	})
}
