// Package checkpoint persists workflow state snapshots so interrupted
// runs can resume at the last batch boundary. One snapshot exists per
// workflow id; saving overwrites, deleting is idempotent.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/stepflow/workflow"
)

var (
	// ErrNotFound means no checkpoint exists for the workflow id.
	// Callers typically recover by starting fresh.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrCorrupted means a checkpoint exists but does not parse.
	// Callers should surface this rather than silently re-running.
	ErrCorrupted = errors.New("checkpoint corrupted")
)

// Store is the byte-level storage backend a Manager serializes into.
type Store interface {
	// Put writes the snapshot for a workflow id, replacing any prior one.
	Put(ctx context.Context, workflowID string, data []byte) error
	// Get reads the snapshot for a workflow id, or ErrNotFound.
	Get(ctx context.Context, workflowID string) ([]byte, error)
	// Exists reports whether a snapshot is on record.
	Exists(ctx context.Context, workflowID string) (bool, error)
	// Delete removes the snapshot; deleting a missing one is not an error.
	Delete(ctx context.Context, workflowID string) error
	// List returns the workflow ids with a snapshot on record.
	List(ctx context.Context) ([]string, error)
}

// Manager serializes workflow state to a Store and back, translating
// storage outcomes into the two distinct error kinds callers branch on.
type Manager struct {
	store  Store
	logger *zap.Logger
}

var _ workflow.Checkpointer = (*Manager)(nil)

// NewManager creates a checkpoint manager over the given store.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger.With(zap.String("component", "checkpoint_manager")),
	}
}

// Save serializes the full state, including the embedded definition so a
// later resume never requires the caller to re-supply it.
func (m *Manager) Save(ctx context.Context, state *workflow.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("serialize checkpoint: %w", err)
	}
	if err := m.store.Put(ctx, state.WorkflowID(), data); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", state.WorkflowID(), err)
	}
	m.logger.Debug("checkpoint saved",
		zap.String("workflow_id", state.WorkflowID()),
		zap.String("status", string(state.Status())),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load restores the state for a workflow id. It fails with ErrNotFound if
// no snapshot exists and ErrCorrupted if the snapshot does not parse.
func (m *Manager) Load(ctx context.Context, workflowID string) (*workflow.State, error) {
	data, err := m.store.Get(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", workflowID, err)
	}
	state := new(workflow.State)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w: %v", workflowID, ErrCorrupted, err)
	}
	if state.Definition() == nil {
		return nil, fmt.Errorf("load checkpoint %s: %w: missing definition", workflowID, ErrCorrupted)
	}
	m.logger.Info("checkpoint loaded",
		zap.String("workflow_id", workflowID),
		zap.String("status", string(state.Status())),
		zap.Int("completed_steps", len(state.CompletedSteps())),
	)
	return state, nil
}

// Exists reports whether a checkpoint is on record for the workflow id.
func (m *Manager) Exists(ctx context.Context, workflowID string) (bool, error) {
	return m.store.Exists(ctx, workflowID)
}

// Delete removes the checkpoint for a workflow id. Idempotent.
func (m *Manager) Delete(ctx context.Context, workflowID string) error {
	if err := m.store.Delete(ctx, workflowID); err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", workflowID, err)
	}
	m.logger.Debug("checkpoint deleted", zap.String("workflow_id", workflowID))
	return nil
}

// List returns the workflow ids with a checkpoint on record.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
