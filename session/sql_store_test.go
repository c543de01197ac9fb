package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/llm"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStore_CreateThenResumeRoundTrips(t *testing.T) {
	store := newTestSQLStore(t)

	s, err := store.Create(context.Background(), "sql chat")
	require.NoError(t, err)
	s.AppendMessage(llm.Message{Role: "user", Content: "hello from sql"})
	require.NoError(t, store.Save(context.Background(), s))

	resumed, err := store.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "sql chat", resumed.Title)
	if assert.Len(t, resumed.Messages, 1) {
		assert.Equal(t, "hello from sql", resumed.Messages[0].Content)
	}
}

func TestSQLStore_ResumeUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestSQLStore(t)

	_, err := store.Resume(context.Background(), "nope")
	var notFound *NotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSQLStore_SaveUpsertsOnConflict(t *testing.T) {
	store := newTestSQLStore(t)

	s, err := store.Create(context.Background(), "t")
	require.NoError(t, err)
	s.AppendMessage(llm.Message{Role: "user", Content: "v1"})
	require.NoError(t, store.Save(context.Background(), s))

	s.Title = "renamed"
	s.AppendMessage(llm.Message{Role: "user", Content: "v2"})
	require.NoError(t, store.Save(context.Background(), s))

	resumed, err := store.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", resumed.Title)
	assert.Len(t, resumed.Messages, 2)
}

func TestSQLStore_DeleteUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestSQLStore(t)

	err := store.Delete(context.Background(), "nope")
	var notFound *NotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSQLStore_ListOrdersByUpdatedDescending(t *testing.T) {
	store := newTestSQLStore(t)

	s1, err := store.Create(context.Background(), "first")
	require.NoError(t, err)
	s2, err := store.Create(context.Background(), "second")
	require.NoError(t, err)

	s1.Updated = s2.Updated.Add(-time.Hour)
	require.NoError(t, store.Save(context.Background(), s1))
	require.NoError(t, store.Save(context.Background(), s2))

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	if assert.Len(t, metas, 2) {
		assert.Equal(t, s2.ID, metas[0].ID)
		assert.Equal(t, s1.ID, metas[1].ID)
	}
}
