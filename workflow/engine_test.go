package workflow

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/agent"
	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/tool"
	"github.com/forgecode/forge/undo"
)

func newTestEngineManager(t *testing.T, responses []stubResponse) (*agent.Manager, *httptest.Server) {
	t.Helper()
	srv := stubChatServer(t, responses)
	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	registry := tool.NewRegistry()
	m := agent.NewManager(client, registry, 8, func(sessionID string) *tool.ExecutionContext {
		return &tool.ExecutionContext{SessionID: sessionID}
	})
	m.RegisterType(agent.TypeConfig{Name: "coder", SystemPrompt: "you code", MaxIterations: 3})
	return m, srv
}

func TestEngine_RunExecutesLinearWorkflowToSuccess(t *testing.T) {
	manager, srv := newTestEngineManager(t, []stubResponse{oneShot("a done"), oneShot("b done"), oneShot("c done")})
	defer srv.Close()

	engine, err := NewEngine(manager, undo.NewStore(0, 0), filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	state, err := engine.Run(context.Background(), linearDef(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, state.Status)
	assert.Equal(t, StatusSucceeded, state.Results["a"].Status)
	assert.Equal(t, StatusSucceeded, state.Results["c"].Status)
}

func TestEngine_RunStopsOnStepFailure(t *testing.T) {
	manager, srv := newTestEngineManager(t, []stubResponse{failStub()})
	defer srv.Close()

	engine, err := NewEngine(manager, undo.NewStore(0, 0), filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	state, err := engine.Run(context.Background(), linearDef(), nil)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, StatusFailed, state.Results["a"].Status)
}

func TestEngine_RunRejectsCyclicDefinition(t *testing.T) {
	manager, srv := newTestEngineManager(t, nil)
	defer srv.Close()

	engine, err := NewEngine(manager, undo.NewStore(0, 0), "")
	require.NoError(t, err)

	def := Definition{
		Name: "cyclic", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "d", DependsOn: []string{"b"}},
			{ID: "b", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
		},
	}
	_, err = engine.Run(context.Background(), def, nil)
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindCycle, werr.Kind)
}

func TestEngine_CancelStopsBeforeNextBatch(t *testing.T) {
	manager, srv := newTestEngineManager(t, []stubResponse{oneShot("a done")})
	defer srv.Close()

	engine, err := NewEngine(manager, undo.NewStore(0, 0), filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	// linearDef has 3 sequential steps (a -> b -> c); cancel before
	// running so no batch is ever allowed to start.
	engine.Cancel("will-never-match-generated-id")

	def := linearDef()
	state := NewState("cancel-me", def)
	engine.Cancel(state.WorkflowID)

	result, err := engine.Run(context.Background(), def, state)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
}

func TestEngine_ResumeContinuesFromCheckpoint(t *testing.T) {
	checkpointDir := filepath.Join(t.TempDir(), "checkpoints")

	// First run fails partway through step "b".
	manager1, srv1 := newTestEngineManager(t, []stubResponse{oneShot("a done"), failStub()})
	engine1, err := NewEngine(manager1, undo.NewStore(0, 0), checkpointDir)
	require.NoError(t, err)

	def := linearDef()
	state, err := engine1.Run(context.Background(), def, nil)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	srv1.Close()

	// Resume against a fresh engine/manager: "a" should not re-run.
	manager2, srv2 := newTestEngineManager(t, []stubResponse{oneShot("b done"), oneShot("c done")})
	defer srv2.Close()
	engine2, err := NewEngine(manager2, undo.NewStore(0, 0), checkpointDir)
	require.NoError(t, err)

	resumed, err := engine2.Resume(context.Background(), state.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, resumed.Status)
	assert.Equal(t, StatusSucceeded, resumed.Results["a"].Status)
	assert.Equal(t, StatusSucceeded, resumed.Results["b"].Status)
	assert.Equal(t, StatusSucceeded, resumed.Results["c"].Status)
}

func TestEngine_ResumeWithoutCheckpointingDisabledFails(t *testing.T) {
	manager, srv := newTestEngineManager(t, nil)
	defer srv.Close()

	engine, err := NewEngine(manager, undo.NewStore(0, 0), "")
	require.NoError(t, err)

	_, err = engine.Resume(context.Background(), "whatever")
	assert.Error(t, err)
}
