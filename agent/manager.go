package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/pkg/registry"
	"github.com/forgecode/forge/tool"
)

// ManagerError mirrors the prior {Component, Action, Message, Err}
// error shape (agent/registry.go's AgentRegistryError).
type ManagerError struct {
	Action  string
	Message string
	Err     error
}

func (e *ManagerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent.Manager: %s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("agent.Manager: %s: %s", e.Action, e.Message)
}

func (e *ManagerError) Unwrap() error { return e.Err }

// liveAgent bundles a spawned Agent with its completion signal, so Wait can
// block until the loop goroutine finishes. The run's cancel func is kept on
// the Agent itself.
type liveAgent struct {
	agent *Agent
	done  chan struct{}
}

// Manager owns the process-singleton registry of live agents (spec §4.8):
// spawn/wait/cancel/list plus an aggregate-stats view, with a bounded
// concurrency limit that queues excess spawns until a slot frees up.
//
// Grounded on agent/registry.go's AgentRegistry shape (same error-wrapping
// convention, same "single source of truth" registry idiom) generalized
// from a config-time agent-type catalog to a runtime live-agent table, and
// on pkg/registry.BaseRegistry[T] for the underlying storage.
type Manager struct {
	mu       sync.RWMutex
	base     *registry.BaseRegistry[*liveAgent]
	sem      *semaphore.Weighted
	client   *llm.Client
	tools    *tool.Registry
	types    map[string]TypeConfig
	newExecC func(sessionID string) *tool.ExecutionContext
}

// NewManager builds a Manager bounded to maxConcurrent simultaneous live
// agents. newExecC builds a fresh tool.ExecutionContext per spawned agent
// (wiring in permission/hook/undo for that agent's session).
func NewManager(client *llm.Client, tools *tool.Registry, maxConcurrent int, newExecC func(sessionID string) *tool.ExecutionContext) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Manager{
		base:     registry.NewBaseRegistry[*liveAgent](),
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		client:   client,
		tools:    tools,
		types:    make(map[string]TypeConfig),
		newExecC: newExecC,
	}
}

// RegisterType adds (or replaces) an agent type's prompt/budget config.
func (m *Manager) RegisterType(cfg TypeConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[cfg.Name] = cfg.withDefaults()
}

func (m *Manager) typeConfig(name string) (TypeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.types[name]
	if !ok {
		return TypeConfig{}, &ManagerError{Action: "Spawn", Message: fmt.Sprintf("unregistered agent type %q", name)}
	}
	return cfg, nil
}

// Spawn starts a new agent run of agentType. It blocks until a concurrency
// slot is available (or ctx is canceled first), then runs the loop in its
// own goroutine and returns immediately with the agent's id.
func (m *Manager) Spawn(ctx context.Context, agentType string, taskCtx TaskContext, task string, history []llm.Message) (string, error) {
	cfg, err := m.typeConfig(agentType)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	a := New(id, agentType, cfg, taskCtx, task, history)

	runCtx, cancel := context.WithCancel(ctx)
	live := &liveAgent{agent: a, done: make(chan struct{})}
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	if err := m.base.Register(id, live); err != nil {
		cancel()
		return "", &ManagerError{Action: "Spawn", Message: "failed to register agent", Err: err}
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		cancel()
		a.finish(StateCancelled, &Result{Success: false, Message: "cancelled before a concurrency slot freed"})
		close(live.done)
		return id, nil
	}

	ec := m.newExecC(id)
	go func() {
		defer m.sem.Release(1)
		defer close(live.done)
		defer cancel()
		Run(runCtx, a, m.client, m.tools, ec, nil)
	}()

	return id, nil
}

// Wait blocks until agent id's run completes (in any terminal state) or
// ctx is canceled, and returns its final result.
func (m *Manager) Wait(ctx context.Context, id string) (*Result, error) {
	live, ok := m.base.Get(id)
	if !ok {
		return nil, &ManagerError{Action: "Wait", Message: fmt.Sprintf("unknown agent %q", id)}
	}
	select {
	case <-live.done:
		return live.agent.Result(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel transitions agent id to CANCELLED at its next suspension
// boundary (spec §4.8 step 5).
func (m *Manager) Cancel(id string) error {
	live, ok := m.base.Get(id)
	if !ok {
		return &ManagerError{Action: "Cancel", Message: fmt.Sprintf("unknown agent %q", id)}
	}
	live.agent.mu.Lock()
	cancel := live.agent.cancel
	live.agent.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Get returns the live Agent by id.
func (m *Manager) Get(id string) (*Agent, bool) {
	live, ok := m.base.Get(id)
	if !ok {
		return nil, false
	}
	return live.agent, true
}

// List returns every tracked agent, live or completed.
func (m *Manager) List() []*Agent {
	entries := m.base.List()
	out := make([]*Agent, 0, len(entries))
	for _, live := range entries {
		out = append(out, live.agent)
	}
	return out
}

// AggregateStats sums Stats across every tracked agent.
func (m *Manager) AggregateStats() Stats {
	var total Stats
	for _, a := range m.List() {
		s := a.Stats()
		total.TokensUsed += s.TokensUsed
		total.ToolCalls += s.ToolCalls
		total.TimeSeconds += s.TimeSeconds
	}
	return total
}

// Forget removes a completed agent from the registry, e.g. after its
// result has been consumed by a workflow step.
func (m *Manager) Forget(id string) error {
	if err := m.base.Remove(id); err != nil {
		return &ManagerError{Action: "Forget", Message: fmt.Sprintf("unknown agent %q", id), Err: err}
	}
	return nil
}
