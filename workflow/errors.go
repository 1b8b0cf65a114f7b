package workflow

import "fmt"

// DuplicateStepError reports a step id registered twice in one graph.
type DuplicateStepError struct {
	StepID string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("duplicate step id %q", e.StepID)
}

// UnknownStepError reports an edge or dependency referencing a step id
// that is not part of the graph.
type UnknownStepError struct {
	StepID string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step id %q", e.StepID)
}

// CycleError reports a dependency cycle, naming a step on the cycle.
type CycleError struct {
	StepID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected involving step %q", e.StepID)
}

// ExecutionError wraps any error that escapes workflow execution after the
// state has been marked failed and a final checkpoint persisted.
type ExecutionError struct {
	WorkflowID string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("workflow %s execution failed: %v", e.WorkflowID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
