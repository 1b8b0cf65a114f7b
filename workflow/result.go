package workflow

import (
	"time"

	"github.com/BaSui01/stepflow/agent"
)

// StepResult is the immutable record of one step's terminal outcome.
type StepResult struct {
	StepID    string        `json:"step_id"`
	Agent     string        `json:"agent"`
	Result    *agent.Result `json:"result,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Skipped   bool          `json:"skipped"`
	Retries   int           `json:"retries"`
}

// Result is the final outcome of one workflow run, derived from a
// terminal state.
type Result struct {
	WorkflowID     string                 `json:"workflow_id"`
	Name           string                 `json:"name"`
	Success        bool                   `json:"success"`
	StepsCompleted int                    `json:"steps_completed"`
	StepsFailed    int                    `json:"steps_failed"`
	StepsSkipped   int                    `json:"steps_skipped"`
	StepResults    map[string]*StepResult `json:"step_results"`
	Duration       time.Duration          `json:"duration"`
	StartedAt      time.Time              `json:"started_at"`
	EndedAt        time.Time              `json:"ended_at"`
	Error          string                 `json:"error,omitempty"`
}
