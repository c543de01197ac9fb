package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgecode/forge/llm"
)

func TestTypeConfig_WithDefaults(t *testing.T) {
	cfg := TypeConfig{}.withDefaults()
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 100_000, cfg.MaxTokens)

	explicit := TypeConfig{MaxIterations: 10, MaxTokens: 500}.withDefaults()
	assert.Equal(t, 10, explicit.MaxIterations)
	assert.Equal(t, 500, explicit.MaxTokens)
}

func TestNew_StartsPendingWithCopiedHistory(t *testing.T) {
	history := []llm.Message{{Role: "user", Content: "hi"}}
	a := New("id1", "coder", TypeConfig{}, TaskContext{}, "task", history)

	assert.Equal(t, StatePending, a.State())
	assert.Equal(t, "id1", a.ID)

	history[0].Content = "mutated"
	assert.Equal(t, "hi", a.History()[0].Content)
}

func TestAgent_FinishSetsStateResultAndDuration(t *testing.T) {
	a := New("id2", "coder", TypeConfig{}, TaskContext{}, "task", nil)
	a.setState(StateRunning)
	r := a.finish(StateCompleted, &Result{Success: true, Message: "ok"})

	assert.Equal(t, StateCompleted, a.State())
	assert.Equal(t, r, a.Result())
	assert.True(t, a.Result().Success)
}
