package workflow

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointStore_SaveThenLoadRoundTrips(t *testing.T) {
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	state := NewState("wf-1", linearDef())
	state.Results["a"] = StepResult{StepID: "a", Status: StatusSucceeded}
	require.NoError(t, store.Save(state))

	loaded, err := store.Load("wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", loaded.WorkflowID)
	assert.Equal(t, StatusSucceeded, loaded.Results["a"].Status)
}

func TestCheckpointStore_LoadMissingFails(t *testing.T) {
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	_, err = store.Load("ghost")
	assert.Error(t, err)
}

func TestCheckpointStore_DeleteIsIdempotent(t *testing.T) {
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	state := NewState("wf-2", linearDef())
	require.NoError(t, store.Save(state))
	require.NoError(t, store.Delete("wf-2"))
	require.NoError(t, store.Delete("wf-2"))

	_, err = store.Load("wf-2")
	assert.Error(t, err)
}

func TestCheckpointStore_SaveOverwritesPriorSnapshot(t *testing.T) {
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	state := NewState("wf-3", linearDef())
	require.NoError(t, store.Save(state))

	state.Results["a"] = StepResult{StepID: "a", Status: StatusSucceeded}
	require.NoError(t, store.Save(state))

	loaded, err := store.Load("wf-3")
	require.NoError(t, err)
	assert.Len(t, loaded.Results, 1)
}
