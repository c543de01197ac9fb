// Package agent implements the Agent Loop and Agent Manager (C8): a
// bounded-iteration LLM tool-calling loop plus a process-singleton
// registry of live agent runs with spawn/wait/cancel/list.
package agent

import (
	"sync"
	"time"

	"github.com/forgecode/forge/llm"
)

// State is one of an agent's lifecycle states. Transitions follow
// PENDING -> RUNNING -> {COMPLETED, FAILED, CANCELLED}.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// TypeConfig is the per-agent-type configuration: its system prompt and
// loop bounds. Distinct agent types (e.g. "coder", "reviewer") share one
// LLM client and tool registry but carry their own prompt and budget.
type TypeConfig struct {
	Name          string
	SystemPrompt  string
	MaxIterations int
	MaxTokens     int
}

func (c TypeConfig) withDefaults() TypeConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 25
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 100_000
	}
	return c
}

// TaskContext is the session/system context folded into the prompt
// alongside the type's system prompt and message history: active file,
// recent operations, project-language hints, and an optional RAG snippet.
type TaskContext struct {
	ActiveFile       string
	RecentOperations []string
	ProjectLanguage  string
	RAGSnippet       string
}

// Stats tracks one agent's resource usage across its run.
type Stats struct {
	TokensUsed  int
	TimeSeconds float64
	ToolCalls   int
}

// Result is what a completed (or failed/cancelled) agent run produces.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
}

// Agent is one spawned run: `{id, type, config, context, task}` per spec
// §4.8, plus the mutable state the loop advances as it executes.
type Agent struct {
	ID      string
	Type    string
	Config  TypeConfig
	Context TaskContext
	Task    string

	mu        sync.Mutex
	state     State
	history   []llm.Message
	stats     Stats
	result    *Result
	startedAt time.Time
	cancel    func()
	undoIDs   []string
}

// New builds a pending agent. id is assigned by the Manager at spawn time.
func New(id, agentType string, cfg TypeConfig, taskCtx TaskContext, task string, history []llm.Message) *Agent {
	return &Agent{
		ID:      id,
		Type:    agentType,
		Config:  cfg.withDefaults(),
		Context: taskCtx,
		Task:    task,
		state:   StatePending,
		history: append([]llm.Message(nil), history...),
	}
}

// State returns the agent's current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Stats returns a snapshot of the agent's resource usage so far.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Result returns the agent's final result, or nil if still running.
func (a *Agent) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// History returns a copy of the agent's accumulated message history.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.Message(nil), a.history...)
}

// UndoIDs returns the undo entries (tool.Result.Metadata["undo_id"])
// committed by this agent's tool calls, in the order they were created.
// The workflow rollback layer (C10) uses this to checkpoint a step
// without depending on this package knowing about workflows.
func (a *Agent) UndoIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.undoIDs...)
}

func (a *Agent) recordUndoID(id string) {
	if id == "" {
		return
	}
	a.mu.Lock()
	a.undoIDs = append(a.undoIDs, id)
	a.mu.Unlock()
}
