// Package stepflow provides a top-level convenience entry point for
// creating a fully wired workflow engine with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/stepflow"
//
//	cfg, _ := config.NewLoader().WithConfigPath("stepflow.yaml").Load()
//	eng, err := stepflow.New(cfg, myBackend)
//	defer eng.Close(context.Background())
//	result, err := eng.Execute(ctx, def)
//
// Callers wanting finer control wire workflow.NewExecutor directly.
package stepflow

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/stepflow/agent"
	"github.com/BaSui01/stepflow/checkpoint"
	"github.com/BaSui01/stepflow/config"
	"github.com/BaSui01/stepflow/internal/metrics"
	"github.com/BaSui01/stepflow/internal/telemetry"
	"github.com/BaSui01/stepflow/workflow"
)

// Engine is a fully wired workflow executor plus the telemetry providers
// backing its spans and metrics. Close it when done to flush exporters.
type Engine struct {
	*workflow.Executor

	telemetry *telemetry.Providers
	logger    *zap.Logger
}

// New builds an engine from configuration: logger, telemetry providers,
// metrics collector, and checkpoint store included.
func New(cfg *config.Config, backend agent.Backend) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	store, err := NewStore(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}

	exec := workflow.NewExecutor(backend,
		workflow.WithLogger(logger),
		workflow.WithCheckpointer(checkpoint.NewManager(store, logger)),
		workflow.WithMetrics(collector),
		workflow.WithMaxParallel(cfg.Executor.MaxParallel),
	)

	return &Engine{
		Executor:  exec,
		telemetry: providers,
		logger:    logger,
	}, nil
}

// Close flushes pending telemetry and the logger. Safe to call when
// telemetry is disabled.
func (e *Engine) Close(ctx context.Context) error {
	err := e.telemetry.Shutdown(ctx)
	_ = e.logger.Sync()
	return err
}

// NewStore builds the checkpoint store selected by configuration.
func NewStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Backend {
	case "file", "":
		return checkpoint.NewFileStore(cfg.Dir)

	case "memory":
		return checkpoint.NewMemoryStore(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return checkpoint.NewRedisStore(client), nil

	case "database":
		if cfg.Database.Driver != "sqlite" {
			return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
		}
		db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open checkpoint database: %w", err)
		}
		return checkpoint.NewGormStore(db)

	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
