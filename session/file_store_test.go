package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/llm"
)

func TestFileStore_CreateThenResumeRoundTrips(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := store.Create(context.Background(), "new chat")
	require.NoError(t, err)

	s.AppendMessage(llm.Message{Role: "user", Content: "hello"})
	s.Tracker.ActiveFile = "main.go"
	require.NoError(t, store.Save(context.Background(), s))

	resumed, err := store.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "new chat", resumed.Title)
	assert.Equal(t, "main.go", resumed.Tracker.ActiveFile)
	if assert.Len(t, resumed.Messages, 1) {
		assert.Equal(t, "hello", resumed.Messages[0].Content)
	}
}

func TestFileStore_SaveWritesBackupOfPriorVersion(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := store.Create(context.Background(), "t")
	require.NoError(t, err)

	s.AppendMessage(llm.Message{Role: "user", Content: "first save"})
	require.NoError(t, store.Save(context.Background(), s))

	s.AppendMessage(llm.Message{Role: "user", Content: "second save"})
	require.NoError(t, store.Save(context.Background(), s))

	data, err := os.ReadFile(store.backupPath(s.ID))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first save")
	assert.NotContains(t, string(data), "second save")
}

func TestFileStore_ResumeFallsBackToBackupOnCorruptLiveFile(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := store.Create(context.Background(), "t")
	require.NoError(t, err)
	s.AppendMessage(llm.Message{Role: "user", Content: "good copy"})
	require.NoError(t, store.Save(context.Background(), s))

	// This second save moves the good copy to backup and writes a new live
	// file, which we then corrupt in place to simulate a torn write.
	s.AppendMessage(llm.Message{Role: "user", Content: "corrupted copy"})
	require.NoError(t, store.Save(context.Background(), s))
	require.NoError(t, os.WriteFile(store.livePath(s.ID), []byte("{not valid json"), 0o644))

	resumed, err := store.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	if assert.Len(t, resumed.Messages, 1) {
		assert.Equal(t, "good copy", resumed.Messages[0].Content)
	}
}

func TestFileStore_ResumeRaisesCorruptedWhenBothFilesFail(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.livePath("broken"), []byte("{not valid"), 0o644))
	require.NoError(t, os.WriteFile(store.backupPath("broken"), []byte("also not valid"), 0o644))

	_, err = store.Resume(context.Background(), "broken")
	require.Error(t, err)
	var corrupted *Corrupted
	assert.ErrorAs(t, err, &corrupted)
}

func TestFileStore_ResumeUnknownIDReturnsNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Resume(context.Background(), "nope")
	var notFound *NotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFileStore_ListOrdersByUpdatedDescending(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	older := New("older", "first")
	older.Updated = time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.Save(context.Background(), older))

	newer := New("newer", "second")
	newer.Updated = time.Now()
	require.NoError(t, store.Save(context.Background(), newer))

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	if assert.Len(t, metas, 2) {
		assert.Equal(t, "newer", metas[0].ID)
		assert.Equal(t, "older", metas[1].ID)
	}
}

func TestFileStore_DeleteRemovesLiveAndBackup(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := store.Create(context.Background(), "t")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), s)) // second save creates a backup

	require.NoError(t, store.Delete(context.Background(), s.ID))

	_, err = os.Stat(store.livePath(s.ID))
	assert.True(t, os.IsNotExist(err))

	_, err = store.Resume(context.Background(), s.ID)
	var notFound *NotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFileStore_DeleteUnknownIDReturnsNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "nope")
	var notFound *NotFound
	assert.ErrorAs(t, err, &notFound)
}
