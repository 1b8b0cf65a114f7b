package workflow

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/stepflow/agent"
	"github.com/BaSui01/stepflow/internal/metrics"
)

// StepExecutor runs one step against the agent backend with bounded
// retries. Retries are fast-fail with no backoff: the backend is assumed
// to rate-limit itself. Failures never escape; the caller always gets a
// terminal StepResult.
type StepExecutor struct {
	backend agent.Backend
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// NewStepExecutor creates a step executor over the given backend.
func NewStepExecutor(backend agent.Backend, logger *zap.Logger, collector *metrics.Collector) *StepExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepExecutor{
		backend: backend,
		logger:  logger.With(zap.String("component", "step_executor")),
		metrics: collector,
		tracer:  otel.Tracer("stepflow/workflow"),
	}
}

// Execute runs the step for up to MaxRetries+1 attempts and returns its
// terminal result.
func (e *StepExecutor) Execute(ctx context.Context, step *Step) *StepResult {
	ctx, span := e.tracer.Start(ctx, "workflow.step",
		trace.WithAttributes(
			attribute.String("step.id", step.ID),
			attribute.String("step.agent", step.Agent),
		),
	)
	defer span.End()

	start := time.Now()
	task := step.Task()

	var lastResult *agent.Result
	lastErr := "step produced no result"

	for attempt := 0; attempt <= step.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Info("retrying step",
				zap.String("step_id", step.ID),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", step.MaxRetries+1),
				zap.String("last_error", lastErr),
			)
			e.metrics.RecordStepRetry(step.Agent)
		}

		res, err := e.runOnce(ctx, step, task)
		if err != nil {
			lastErr = err.Error()
			continue
		}
		lastResult = res
		if res.Success {
			end := time.Now()
			e.metrics.RecordStep(step.Agent, "completed", end.Sub(start))
			return &StepResult{
				StepID:    step.ID,
				Agent:     step.Agent,
				Result:    res,
				StartedAt: start,
				EndedAt:   end,
				Duration:  end.Sub(start),
				Success:   true,
				Retries:   attempt,
			}
		}
		lastErr = res.Error
		if lastErr == "" {
			lastErr = "agent reported failure"
		}
	}

	end := time.Now()
	e.logger.Warn("step exhausted retry budget",
		zap.String("step_id", step.ID),
		zap.Int("attempts", step.MaxRetries+1),
		zap.String("error", lastErr),
	)
	e.metrics.RecordStep(step.Agent, "failed", end.Sub(start))
	span.SetAttributes(attribute.Bool("step.failed", true))

	return &StepResult{
		StepID:    step.ID,
		Agent:     step.Agent,
		Result:    lastResult,
		StartedAt: start,
		EndedAt:   end,
		Duration:  end.Sub(start),
		Success:   false,
		Error:     lastErr,
		Retries:   step.MaxRetries,
	}
}

func (e *StepExecutor) runOnce(ctx context.Context, step *Step, task string) (*agent.Result, error) {
	handle, err := e.backend.Spawn(ctx, agent.SpawnSpec{
		Agent:   step.Agent,
		Task:    task,
		Inputs:  step.Inputs,
		Timeout: step.Timeout,
	})
	if err != nil {
		return nil, err
	}
	res, err := handle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("backend returned no result")
	}
	return res, nil
}
