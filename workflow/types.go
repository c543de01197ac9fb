// Package workflow implements the DAG-based workflow engine (C10): step
// definitions with dependency/condition edges, cycle-checked compilation,
// Kahn-batched concurrent execution through the agent package, per-step
// checkpointing, and undo-ledger-backed rollback.
package workflow

import "time"

// Status is a workflow or step's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// Step is one node of a workflow's DAG: the agent type to spawn, its
// inputs, and the edges that order it relative to its siblings.
type Step struct {
	ID           string         `yaml:"id" json:"id"`
	Agent        string         `yaml:"agent" json:"agent"`
	Description  string         `yaml:"description" json:"description"`
	Inputs       map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	DependsOn    []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	ParallelWith []string       `yaml:"parallel_with,omitempty" json:"parallel_with,omitempty"`
	Condition    string         `yaml:"condition,omitempty" json:"condition,omitempty"`
	Timeout      time.Duration  `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxRetries   int            `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
}

// Definition is a parsed, not-yet-compiled workflow: the YAML document (or
// its programmatically-built equivalent) before cycle checking turns it
// into an executable Graph.
type Definition struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Version     string         `yaml:"version" json:"version"`
	Author      string         `yaml:"author,omitempty" json:"author,omitempty"`
	Metadata    map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Steps       []Step         `yaml:"steps" json:"steps"`
}

// StepResult is the record of one step's execution, whether it ran,
// skipped, or failed.
type StepResult struct {
	StepID   string         `json:"step_id"`
	AgentID  string         `json:"agent_id,omitempty"`
	Status   Status         `json:"status"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	UndoIDs  []string       `json:"undo_ids,omitempty"`
	Attempts int            `json:"attempts"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
}

// Duration reports how long the step ran for, zero if it never started.
func (r StepResult) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// State is the full run-time state of one workflow execution: its
// definition, compiled graph-derived ordering, and accumulated results.
// This is what gets checkpointed to disk between steps.
type State struct {
	WorkflowID string                `json:"workflow_id"`
	Definition Definition            `json:"definition"`
	Status     Status                `json:"status"`
	Results    map[string]StepResult `json:"results"`
	StartedAt  time.Time             `json:"started_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewState seeds a fresh run of def under workflowID.
func NewState(workflowID string, def Definition) *State {
	return &State{
		WorkflowID: workflowID,
		Definition: def,
		Status:     StatusPending,
		Results:    make(map[string]StepResult),
		StartedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// StepByID returns the step with the given id, if present.
func (d Definition) StepByID(id string) (Step, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}
