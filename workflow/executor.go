package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/stepflow/agent"
	"github.com/BaSui01/stepflow/internal/metrics"
	"github.com/BaSui01/stepflow/workflow/condition"
)

// Checkpointer persists workflow state between batches. The checkpoint
// package provides the durable implementations; the executor only depends
// on this interface.
type Checkpointer interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context, workflowID string) (*State, error)
	Exists(ctx context.Context, workflowID string) (bool, error)
	Delete(ctx context.Context, workflowID string) error
}

// Executor coordinates one workflow run: it builds and validates the
// graph, computes execution batches, drives batch-parallel execution with
// condition gating, checkpoints at batch boundaries, and finalizes a
// result.
type Executor struct {
	backend     agent.Backend
	steps       *StepExecutor
	checkpoints Checkpointer
	logger      *zap.Logger
	metrics     *metrics.Collector
	tracer      trace.Tracer
	maxParallel int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithCheckpointer enables durable checkpointing.
func WithCheckpointer(cp Checkpointer) Option {
	return func(e *Executor) { e.checkpoints = cp }
}

// WithMetrics wires a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Executor) { e.metrics = c }
}

// WithMaxParallel caps concurrent step dispatch within one batch.
// Zero means no cap.
func WithMaxParallel(n int) Option {
	return func(e *Executor) { e.maxParallel = n }
}

// NewExecutor creates an executor over the given agent backend.
func NewExecutor(backend agent.Backend, opts ...Option) *Executor {
	e := &Executor{
		backend: backend,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("stepflow/workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "workflow_executor"))
	e.steps = NewStepExecutor(backend, e.logger, e.metrics)
	return e
}

// ExecuteOption configures one Execute call.
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	workflowID string
	resume     bool
}

// WithWorkflowID pins the run to a caller-chosen id instead of a
// generated one. Required for resume.
func WithWorkflowID(id string) ExecuteOption {
	return func(o *executeOptions) { o.workflowID = id }
}

// WithResume loads an existing checkpoint for the workflow id instead of
// starting fresh; steps already finished are never re-executed.
func WithResume() ExecuteOption {
	return func(o *executeOptions) { o.resume = true }
}

// Execute runs a workflow definition to a terminal result. It returns
// either a Result or a well-typed error; any error escaping mid-run marks
// the state FAILED, persists a final checkpoint, and comes back wrapped
// in *ExecutionError.
func (e *Executor) Execute(ctx context.Context, def *Definition, opts ...ExecuteOption) (*Result, error) {
	var o executeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if def == nil {
		return nil, fmt.Errorf("workflow definition must not be nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	workflowID := o.workflowID
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	ctx, span := e.tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", workflowID),
			attribute.String("workflow.name", def.Name),
		),
	)
	defer span.End()

	sm, resumed, err := e.initState(ctx, workflowID, def, o.resume)
	if err != nil {
		return nil, err
	}

	// The embedded definition wins on resume so the run picks up exactly
	// where the checkpoint left it.
	graph, err := BuildGraph(sm.State().Definition())
	if err != nil {
		return nil, err
	}
	batches, err := NewTopologicalSorter(graph).ExecutionBatches()
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting workflow execution",
		zap.String("workflow_id", workflowID),
		zap.String("name", def.Name),
		zap.Int("steps", graph.Len()),
		zap.Int("batches", len(batches)),
		zap.Bool("resumed", resumed),
	)

	if resumed {
		err = sm.Resume()
	} else {
		err = sm.StartWorkflow()
	}
	if err != nil {
		return nil, err
	}

	if err := e.runBatches(ctx, sm, graph, batches); err != nil {
		// Single top-level catch: mark failed, leave an inspectable
		// checkpoint, wrap the cause.
		if ferr := sm.FailWorkflow(err.Error()); ferr != nil {
			e.logger.Error("failed to mark workflow failed", zap.Error(ferr))
		}
		e.saveCheckpoint(ctx, sm)
		span.RecordError(err)
		return nil, &ExecutionError{WorkflowID: workflowID, Err: err}
	}

	if failed := len(sm.State().FailedSteps()); failed > 0 {
		if err := sm.FailWorkflow(fmt.Sprintf("%d step(s) failed", failed)); err != nil {
			return nil, &ExecutionError{WorkflowID: workflowID, Err: err}
		}
		e.saveCheckpoint(ctx, sm)
	} else {
		if err := sm.CompleteWorkflow(); err != nil {
			return nil, &ExecutionError{WorkflowID: workflowID, Err: err}
		}
		e.deleteCheckpoint(ctx, workflowID)
	}

	result, err := sm.Result()
	if err != nil {
		return nil, &ExecutionError{WorkflowID: workflowID, Err: err}
	}

	e.metrics.RecordWorkflow(string(sm.State().Status()), result.Duration)
	e.logger.Info("workflow execution finished",
		zap.String("workflow_id", workflowID),
		zap.Bool("success", result.Success),
		zap.Int("steps_completed", result.StepsCompleted),
		zap.Int("steps_failed", result.StepsFailed),
		zap.Int("steps_skipped", result.StepsSkipped),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// initState builds a fresh state or restores one from a checkpoint. A
// requested resume with no checkpointer configured or no checkpoint on
// record degrades to a logged fresh start; a corrupted checkpoint
// surfaces to the caller.
func (e *Executor) initState(ctx context.Context, workflowID string, def *Definition, resume bool) (*StateManager, bool, error) {
	if resume {
		if e.checkpoints == nil {
			e.logger.Warn("resume requested but no checkpointer configured, starting fresh",
				zap.String("workflow_id", workflowID),
			)
			return NewStateManager(workflowID, def, e.logger), false, nil
		}
		exists, err := e.checkpoints.Exists(ctx, workflowID)
		if err != nil {
			return nil, false, err
		}
		if exists {
			state, err := e.checkpoints.Load(ctx, workflowID)
			if err != nil {
				return nil, false, err
			}
			return RestoreStateManager(state, e.logger), true, nil
		}
		e.logger.Warn("resume requested but no checkpoint found, starting fresh",
			zap.String("workflow_id", workflowID),
		)
	}
	return NewStateManager(workflowID, def, e.logger), false, nil
}

// runBatches drives the batches strictly in order. Within one batch all
// eligible steps launch concurrently and the batch boundary is awaited as
// a whole; one step's failure never cancels its siblings.
func (e *Executor) runBatches(ctx context.Context, sm *StateManager, graph *Graph, batches [][]string) error {
	for i, batch := range batches {
		pending := batch[:0:0]
		for _, id := range batch {
			if sm.IsFinished(id) {
				continue
			}
			pending = append(pending, id)
		}
		if len(pending) == 0 {
			e.logger.Debug("batch already finished, skipping",
				zap.Int("batch", i+1),
			)
			continue
		}

		// Condition gating happens synchronously, immediately before
		// dispatch, against the context of everything finished so far.
		var run []*Step
		for _, id := range pending {
			step, ok := graph.Step(id)
			if !ok {
				return &UnknownStepError{StepID: id}
			}
			if step.Condition != "" {
				pass, err := condition.Evaluate(step.Condition, sm.EvaluationContext(), e.logger)
				if err != nil {
					return fmt.Errorf("step %s condition %q: %w", id, step.Condition, err)
				}
				if !pass {
					now := time.Now()
					sm.SkipStep(&StepResult{
						StepID:    id,
						Agent:     step.Agent,
						StartedAt: now,
						EndedAt:   now,
						Skipped:   true,
					})
					continue
				}
			}
			run = append(run, step)
		}

		if len(run) > 0 {
			e.logger.Info("dispatching batch",
				zap.Int("batch", i+1),
				zap.Int("batches", len(batches)),
				zap.Int("steps", len(run)),
			)

			results := make([]*StepResult, len(run))
			var g errgroup.Group
			if e.maxParallel > 0 {
				g.SetLimit(e.maxParallel)
			}
			for idx, step := range run {
				sm.SetCurrentStep(step.ID)
				g.Go(func() error {
					results[idx] = e.steps.Execute(ctx, step)
					return nil
				})
			}
			// Step outcomes are carried in the results themselves; the
			// group only fences the batch boundary.
			_ = g.Wait()

			for _, res := range results {
				if res.Success {
					sm.CompleteStep(res)
				} else {
					sm.FailStep(res)
				}
			}
		}

		// Checkpoint at the quiescent batch boundary regardless of
		// partial failure; resumability is batch-granular.
		e.saveCheckpoint(ctx, sm)
	}
	return nil
}

func (e *Executor) saveCheckpoint(ctx context.Context, sm *StateManager) {
	if e.checkpoints == nil {
		return
	}
	err := e.checkpoints.Save(ctx, sm.State())
	e.metrics.RecordCheckpointSave(err)
	if err != nil {
		e.logger.Error("failed to save checkpoint",
			zap.String("workflow_id", sm.State().WorkflowID()),
			zap.Error(err),
		)
	}
}

func (e *Executor) deleteCheckpoint(ctx context.Context, workflowID string) {
	if e.checkpoints == nil {
		return
	}
	if err := e.checkpoints.Delete(ctx, workflowID); err != nil {
		e.logger.Warn("failed to delete checkpoint",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		return
	}
	e.metrics.RecordCheckpointDelete()
}
