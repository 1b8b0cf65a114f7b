package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the life-cycle state of one workflow run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPaused    Status = "paused"
)

// Terminal reports whether the status admits no further transitions.
// Paused is a side-exit, not terminal: a paused run resumes through the
// same checkpoint path as a failed one.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPending, StatusRunning, StatusPaused:
		return false
	default:
		return false
	}
}

// State is the single mutable aggregate of one workflow run. The three
// step-id sets stay pairwise disjoint and currentStep stays consistent
// because every mutation goes through StateManager.
type State struct {
	workflowID  string
	definition  *Definition
	status      Status
	currentStep string
	completed   map[string]struct{}
	failed      map[string]struct{}
	skipped     map[string]struct{}
	results     map[string]*StepResult
	errorMsg    string
	startedAt   time.Time
	endedAt     time.Time
}

func newState(workflowID string, def *Definition) *State {
	return &State{
		workflowID: workflowID,
		definition: def,
		status:     StatusPending,
		completed:  make(map[string]struct{}),
		failed:     make(map[string]struct{}),
		skipped:    make(map[string]struct{}),
		results:    make(map[string]*StepResult),
		startedAt:  time.Now(),
	}
}

// WorkflowID returns the run's id.
func (s *State) WorkflowID() string { return s.workflowID }

// Definition returns the embedded definition.
func (s *State) Definition() *Definition { return s.definition }

// Status returns the current life-cycle status.
func (s *State) Status() Status { return s.status }

// CurrentStep returns the step currently marked in flight, if any.
func (s *State) CurrentStep() string { return s.currentStep }

// Error returns the workflow-level error message, if any.
func (s *State) Error() string { return s.errorMsg }

// StartedAt returns when the run began.
func (s *State) StartedAt() time.Time { return s.startedAt }

// EndedAt returns when the run reached a terminal status.
func (s *State) EndedAt() time.Time { return s.endedAt }

// CompletedSteps returns the completed step ids in lexicographic order.
func (s *State) CompletedSteps() []string { return sortedIDs(s.completed) }

// FailedSteps returns the failed step ids in lexicographic order.
func (s *State) FailedSteps() []string { return sortedIDs(s.failed) }

// SkippedSteps returns the skipped step ids in lexicographic order.
func (s *State) SkippedSteps() []string { return sortedIDs(s.skipped) }

// StepResult returns the recorded result for a step, if any.
func (s *State) StepResult(id string) (*StepResult, bool) {
	r, ok := s.results[id]
	return r, ok
}

// IsFinished reports whether the step already reached a terminal per-step
// state in this run.
func (s *State) IsFinished(id string) bool {
	if _, ok := s.completed[id]; ok {
		return true
	}
	if _, ok := s.failed[id]; ok {
		return true
	}
	_, ok := s.skipped[id]
	return ok
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// stateJSON is the durable wire shape of a State. The definition is
// embedded so resume never requires the caller to re-supply it.
type stateJSON struct {
	WorkflowID     string                 `json:"workflow_id"`
	Definition     *Definition            `json:"definition"`
	Status         Status                 `json:"status"`
	CurrentStep    string                 `json:"current_step,omitempty"`
	CompletedSteps []string               `json:"completed_steps"`
	FailedSteps    []string               `json:"failed_steps"`
	SkippedSteps   []string               `json:"skipped_steps"`
	StepResults    map[string]*StepResult `json:"step_results"`
	Error          string                 `json:"error,omitempty"`
	StartedAt      time.Time              `json:"started_at"`
	EndedAt        time.Time              `json:"ended_at,omitzero"`
}

// MarshalJSON serializes the full state with stable step-id ordering.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(&stateJSON{
		WorkflowID:     s.workflowID,
		Definition:     s.definition,
		Status:         s.status,
		CurrentStep:    s.currentStep,
		CompletedSteps: s.CompletedSteps(),
		FailedSteps:    s.FailedSteps(),
		SkippedSteps:   s.SkippedSteps(),
		StepResults:    s.results,
		Error:          s.errorMsg,
		StartedAt:      s.startedAt,
		EndedAt:        s.endedAt,
	})
}

// UnmarshalJSON restores a state snapshot.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.workflowID = raw.WorkflowID
	s.definition = raw.Definition
	s.status = raw.Status
	s.currentStep = raw.CurrentStep
	s.completed = idSet(raw.CompletedSteps)
	s.failed = idSet(raw.FailedSteps)
	s.skipped = idSet(raw.SkippedSteps)
	s.results = raw.StepResults
	if s.results == nil {
		s.results = make(map[string]*StepResult)
	}
	s.errorMsg = raw.Error
	s.startedAt = raw.StartedAt
	s.endedAt = raw.EndedAt
	return nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// StateManager owns the mutable workflow state. All life-cycle
// transitions and step recording go through it; nothing else mutates the
// state, which keeps the three-set disjointness and current-step
// consistency enforced in one place.
type StateManager struct {
	mu     sync.Mutex
	state  *State
	logger *zap.Logger
}

// NewStateManager creates a manager around a fresh PENDING state.
func NewStateManager(workflowID string, def *Definition, logger *zap.Logger) *StateManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateManager{
		state:  newState(workflowID, def),
		logger: logger.With(zap.String("component", "state_manager"), zap.String("workflow_id", workflowID)),
	}
}

// RestoreStateManager wraps a state loaded from a checkpoint.
func RestoreStateManager(state *State, logger *zap.Logger) *StateManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateManager{
		state:  state,
		logger: logger.With(zap.String("component", "state_manager"), zap.String("workflow_id", state.workflowID)),
	}
}

// State returns the managed aggregate for checkpointing and inspection.
func (m *StateManager) State() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StartWorkflow transitions PENDING -> RUNNING.
func (m *StateManager) StartWorkflow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.status != StatusPending {
		return fmt.Errorf("cannot start workflow in status %s", m.state.status)
	}
	m.state.status = StatusRunning
	m.logger.Info("workflow started")
	return nil
}

// Resume transitions a resumed run back to RUNNING. Valid from RUNNING
// (checkpoint taken mid-run), FAILED, and PAUSED.
func (m *StateManager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state.status {
	case StatusRunning, StatusFailed, StatusPaused:
		m.state.status = StatusRunning
		m.state.errorMsg = ""
		m.state.endedAt = time.Time{}
		m.logger.Info("workflow resumed",
			zap.Int("steps_finished", len(m.state.completed)+len(m.state.failed)+len(m.state.skipped)),
		)
		return nil
	default:
		return fmt.Errorf("cannot resume workflow in status %s", m.state.status)
	}
}

// SetCurrentStep marks a step as in flight.
func (m *StateManager) SetCurrentStep(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.currentStep = id
}

// CompleteStep records a successful step result.
func (m *StateManager) CompleteStep(res *StepResult) {
	m.record(res, m.state.completed)
	m.logger.Debug("step completed", zap.String("step_id", res.StepID), zap.Duration("duration", res.Duration))
}

// FailStep records a failed step result.
func (m *StateManager) FailStep(res *StepResult) {
	m.record(res, m.state.failed)
	m.logger.Warn("step failed", zap.String("step_id", res.StepID), zap.String("error", res.Error))
}

// SkipStep records a step skipped by its condition.
func (m *StateManager) SkipStep(res *StepResult) {
	m.record(res, m.state.skipped)
	m.logger.Info("step skipped", zap.String("step_id", res.StepID))
}

// record stores the result in exactly one of the three disjoint sets and
// clears the current-step pointer.
func (m *StateManager) record(res *StepResult, target map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.completed, res.StepID)
	delete(m.state.failed, res.StepID)
	delete(m.state.skipped, res.StepID)
	target[res.StepID] = struct{}{}
	m.state.results[res.StepID] = res
	m.state.currentStep = ""
}

// CompleteWorkflow transitions RUNNING -> COMPLETED.
func (m *StateManager) CompleteWorkflow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.status != StatusRunning {
		return fmt.Errorf("cannot complete workflow in status %s", m.state.status)
	}
	m.state.status = StatusCompleted
	m.state.endedAt = time.Now()
	m.logger.Info("workflow completed", zap.Int("steps_completed", len(m.state.completed)))
	return nil
}

// FailWorkflow transitions any non-terminal status to FAILED, recording
// the message.
func (m *StateManager) FailWorkflow(msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.status.Terminal() {
		return fmt.Errorf("cannot fail workflow in terminal status %s", m.state.status)
	}
	m.state.status = StatusFailed
	m.state.errorMsg = msg
	m.state.endedAt = time.Now()
	m.logger.Error("workflow failed", zap.String("error", msg))
	return nil
}

// PauseWorkflow transitions RUNNING -> PAUSED.
func (m *StateManager) PauseWorkflow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.status != StatusRunning {
		return fmt.Errorf("cannot pause workflow in status %s", m.state.status)
	}
	m.state.status = StatusPaused
	m.logger.Info("workflow paused")
	return nil
}

// IsFinished reports whether a step already reached a terminal per-step
// state.
func (m *StateManager) IsFinished(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsFinished(id)
}

// EvaluationContext projects the recorded step results into the read-only
// map consumed by condition expressions: step id to
// {success, failed, result}, with result carrying the agent's data map
// verbatim.
func (m *StateManager) EvaluationContext() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := make(map[string]any, len(m.state.results))
	for id, res := range m.state.results {
		var data map[string]any
		if res.Result != nil {
			data = res.Result.Data
		}
		ctx[id] = map[string]any{
			"success": res.Success,
			"failed":  !res.Success && !res.Skipped,
			"result":  data,
		}
	}
	return ctx
}

// Result derives the final workflow result. Deriving from a non-terminal
// state is itself an error.
func (m *StateManager) Result() (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state
	if !st.status.Terminal() {
		return nil, fmt.Errorf("cannot build result from non-terminal status %s", st.status)
	}

	results := make(map[string]*StepResult, len(st.results))
	for id, res := range st.results {
		results[id] = res
	}

	return &Result{
		WorkflowID:     st.workflowID,
		Name:           st.definition.Name,
		Success:        st.status == StatusCompleted,
		StepsCompleted: len(st.completed),
		StepsFailed:    len(st.failed),
		StepsSkipped:   len(st.skipped),
		StepResults:    results,
		Duration:       st.endedAt.Sub(st.startedAt),
		StartedAt:      st.startedAt,
		EndedAt:        st.endedAt,
		Error:          st.errorMsg,
	}, nil
}
