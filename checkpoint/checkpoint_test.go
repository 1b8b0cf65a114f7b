package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/stepflow/workflow"
)

func testState(t *testing.T, workflowID string) *workflow.State {
	t.Helper()
	def := &workflow.Definition{
		Name:    "pipeline",
		Version: "1.0",
		Steps: []workflow.Step{
			{ID: "fetch", Agent: "fetcher"},
			{ID: "transform", Agent: "transformer", DependsOn: []string{"fetch"}},
		},
	}
	sm := workflow.NewStateManager(workflowID, def, nil)
	require.NoError(t, sm.StartWorkflow())
	sm.CompleteStep(&workflow.StepResult{StepID: "fetch", Agent: "fetcher", Success: true})
	return sm.State()
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), nil)

	state := testState(t, "wf-1")
	require.NoError(t, mgr.Save(ctx, state))

	loaded, err := mgr.Load(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, "wf-1", loaded.WorkflowID())
	assert.Equal(t, workflow.StatusRunning, loaded.Status())
	assert.Equal(t, []string{"fetch"}, loaded.CompletedSteps())
	require.NotNil(t, loaded.Definition())
	assert.Equal(t, "pipeline", loaded.Definition().Name)
}

func TestManager_LoadMissing(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), nil)

	_, err := mgr.Load(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrCorrupted)
}

func TestManager_LoadCorrupted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store, nil)

	t.Run("unparseable snapshot", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "wf-bad", []byte("{truncated")))
		_, err := mgr.Load(ctx, "wf-bad")
		require.ErrorIs(t, err, ErrCorrupted)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("snapshot without definition", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "wf-empty", []byte(`{"workflow_id":"wf-empty"}`)))
		_, err := mgr.Load(ctx, "wf-empty")
		require.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestManager_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), nil)

	sm := workflow.RestoreStateManager(testState(t, "wf-1"), nil)
	require.NoError(t, mgr.Save(ctx, sm.State()))

	sm.CompleteStep(&workflow.StepResult{StepID: "transform", Agent: "transformer", Success: true})
	require.NoError(t, mgr.Save(ctx, sm.State()))

	loaded, err := mgr.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "transform"}, loaded.CompletedSteps())
}

func TestManager_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), nil)

	exists, err := mgr.Exists(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mgr.Save(ctx, testState(t, "wf-1")))
	exists, err = mgr.Exists(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, mgr.Delete(ctx, "wf-1"))
	exists, err = mgr.Exists(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error.
	require.NoError(t, mgr.Delete(ctx, "wf-1"))
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), nil)

	require.NoError(t, mgr.Save(ctx, testState(t, "wf-b")))
	require.NoError(t, mgr.Save(ctx, testState(t, "wf-a")))

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-a", "wf-b"}, ids)
}
