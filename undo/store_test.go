package undo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_UndoRedoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.py")
	writeFile(t, path, "def hello():\n    pass\n")

	store := NewStore(0, 0)
	const session = "s1"

	require.NoError(t, store.CaptureBefore(session, path))
	writeFile(t, path, "def greet():\n    pass\n")
	id, err := store.Commit(session, "Edit", "rename hello to greet", "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = store.Undo(session)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def hello():\n    pass\n", string(got))

	_, err = store.Redo(session)
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def greet():\n    pass\n", string(got))
}

func TestStore_CommitClearsRedoStack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "a")

	store := NewStore(0, 0)
	const session = "s1"

	require.NoError(t, store.CaptureBefore(session, path))
	writeFile(t, path, "b")
	_, err := store.Commit(session, "Write", "a->b", "")
	require.NoError(t, err)

	_, err = store.Undo(session)
	require.NoError(t, err)
	assert.Len(t, store.History(session).redo, 1)

	writeFile(t, path, "c")
	require.NoError(t, store.CaptureBefore(session, path))
	_, err = store.Commit(session, "Write", "a->c", "")
	require.NoError(t, err)

	assert.Empty(t, store.History(session).redo)
}

func TestStore_DiscardPendingDropsCaptures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.txt")
	writeFile(t, path, "original")

	store := NewStore(0, 0)
	require.NoError(t, store.CaptureBefore("s1", path))
	store.DiscardPending("s1")

	id, err := store.Commit("s1", "Write", "noop", "")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, store.History("s1").Entries())
}

func TestStore_UndoDeletesFileThatDidNotExist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	store := NewStore(0, 0)
	require.NoError(t, store.CaptureBefore("s1", path)) // file doesn't exist yet
	writeFile(t, path, "created")
	_, err := store.Commit("s1", "Write", "create new.txt", "")
	require.NoError(t, err)

	_, err = store.Undo("s1")
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHistory_EvictsOldestBeyondBound(t *testing.T) {
	h := NewHistory(2)
	h.push(UndoEntry{ID: "1"})
	h.push(UndoEntry{ID: "2"})
	h.push(UndoEntry{ID: "3"})

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].ID)
	assert.Equal(t, "3", entries[1].ID)
}
