package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/tool"
)

func newTestManager(t *testing.T, responses []string, maxConcurrent int) (*Manager, *httptest.Server) {
	t.Helper()
	srv := chatCompletionsStub(t, responses)
	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}))

	m := NewManager(client, registry, maxConcurrent, func(sessionID string) *tool.ExecutionContext {
		return &tool.ExecutionContext{SessionID: sessionID}
	})
	m.RegisterType(TypeConfig{Name: "coder", SystemPrompt: "you code", MaxIterations: 5})
	return m, srv
}

func TestManager_SpawnAndWaitReturnsResult(t *testing.T) {
	m, srv := newTestManager(t, []string{oneShotResponse("all done")}, 2)
	defer srv.Close()

	id, err := m.Spawn(context.Background(), "coder", TaskContext{}, "do the thing", nil)
	require.NoError(t, err)

	result, err := m.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "all done", result.Message)
}

func TestManager_SpawnUnregisteredTypeFails(t *testing.T) {
	m, srv := newTestManager(t, nil, 2)
	defer srv.Close()

	_, err := m.Spawn(context.Background(), "nonexistent", TaskContext{}, "task", nil)
	require.Error(t, err)
}

func TestManager_CancelTransitionsAgentToCancelled(t *testing.T) {
	// A single slow response gives us a window to cancel before completion.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(oneShotResponse("too late")))
	}))
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	registry := tool.NewRegistry()
	m := NewManager(client, registry, 2, func(sessionID string) *tool.ExecutionContext {
		return &tool.ExecutionContext{SessionID: sessionID}
	})
	m.RegisterType(TypeConfig{Name: "coder", SystemPrompt: "x", MaxIterations: 5})

	id, err := m.Spawn(context.Background(), "coder", TaskContext{}, "go slow", nil)
	require.NoError(t, err)

	require.NoError(t, m.Cancel(id))

	result, err := m.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestManager_ListAndAggregateStats(t *testing.T) {
	m, srv := newTestManager(t, []string{oneShotResponse("one"), oneShotResponse("two")}, 2)
	defer srv.Close()

	id1, err := m.Spawn(context.Background(), "coder", TaskContext{}, "task one", nil)
	require.NoError(t, err)
	_, err = m.Wait(context.Background(), id1)
	require.NoError(t, err)

	id2, err := m.Spawn(context.Background(), "coder", TaskContext{}, "task two", nil)
	require.NoError(t, err)
	_, err = m.Wait(context.Background(), id2)
	require.NoError(t, err)

	assert.Len(t, m.List(), 2)
	stats := m.AggregateStats()
	assert.Equal(t, 16, stats.TokensUsed)
}

func TestManager_BoundedConcurrencyQueuesExcessSpawns(t *testing.T) {
	m, srv := newTestManager(t, []string{oneShotResponse("a"), oneShotResponse("b"), oneShotResponse("c")}, 1)
	defer srv.Close()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := m.Spawn(context.Background(), "coder", TaskContext{}, "task", nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, id := range ids {
		result, err := m.Wait(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, result.Success)
	}
}
