package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/forgecode/forge/undo"
)

// maxRollbackHistory bounds archived completed/discarded workflows kept
// for inspection, matching original_source's WorkflowRollback._max_history.
const maxRollbackHistory = 10

// Checkpoint is one step's rollback record: the undo ids it committed
// (via its agent's session in the Undo Store) plus enough metadata to
// report progress. Named after original_source's workflows/rollback.py
// WorkflowCheckpoint dataclass.
type Checkpoint struct {
	StepID    string         `json:"step_id"`
	StepName  string         `json:"step_name"`
	AgentID   string         `json:"agent_id"`
	UndoIDs   []string       `json:"undo_ids"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RollbackState is the full rollback ledger for one workflow run, mirroring
// original_source's WorkflowRollbackState.
type RollbackState struct {
	WorkflowID   string       `json:"workflow_id"`
	WorkflowName string       `json:"workflow_name"`
	Checkpoints  []Checkpoint `json:"checkpoints"`
	StartedAt    time.Time    `json:"started_at"`
	CanRollback  bool         `json:"can_rollback"`
}

// TotalUndos counts the undo entries across every checkpoint.
func (s RollbackState) TotalUndos() int {
	n := 0
	for _, c := range s.Checkpoints {
		n += len(c.UndoIDs)
	}
	return n
}

// StepCount reports how many steps have checkpointed so far.
func (s RollbackState) StepCount() int {
	return len(s.Checkpoints)
}

// Rollback tracks one active workflow's checkpoints and can undo them,
// step by step or wholesale, via the shared Undo Store.
//
// Grounded on original_source's workflows/rollback.py WorkflowRollback:
// same start/checkpoint/rollback_step/rollback_to_step/rollback_workflow/
// complete_workflow/discard_workflow operations and bounded archive, ported
// from its in-process undo-manager callback to this repo's undo.Store,
// using each checkpoint's spawning agent id as the Undo Store's session
// key (a workflow step's agent only ever commits undo entries under its
// own agent id, so popping that session's stack exactly len(UndoIDs)
// times reverses precisely that step's work).
type Rollback struct {
	undoStore *undo.Store

	mu      sync.Mutex
	active  *RollbackState
	history []RollbackState
}

// NewRollback builds a Rollback layer backed by store.
func NewRollback(store *undo.Store) *Rollback {
	return &Rollback{undoStore: store}
}

// StartWorkflow begins tracking a new workflow run, archiving whatever
// workflow was previously active (matching the Python original's
// "starting a new workflow implicitly completes the prior one" behavior).
func (r *Rollback) StartWorkflow(workflowID, workflowName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.archiveLocked(*r.active)
	}
	r.active = &RollbackState{
		WorkflowID:   workflowID,
		WorkflowName: workflowName,
		StartedAt:    time.Now(),
		CanRollback:  true,
	}
}

// Checkpoint records a completed step's undo ledger against the active
// workflow.
func (r *Rollback) Checkpoint(stepID, stepName, agentID string, undoIDs []string, metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return newError(KindCheckpoint, "rollback", "checkpoint", "no active workflow to checkpoint against", nil)
	}
	r.active.Checkpoints = append(r.active.Checkpoints, Checkpoint{
		StepID:    stepID,
		StepName:  stepName,
		AgentID:   agentID,
		UndoIDs:   undoIDs,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	return nil
}

// undoCheckpoint pops every undo entry a checkpoint committed, newest
// first, from that checkpoint's agent session.
func (r *Rollback) undoCheckpoint(c Checkpoint) error {
	for range c.UndoIDs {
		if _, err := r.undoStore.Undo(c.AgentID); err != nil {
			return newError(KindExecution, "rollback", "undo_checkpoint", fmt.Sprintf("undoing step %q", c.StepID), err)
		}
	}
	return nil
}

// RollbackStep reverses a single step's work and removes its checkpoint.
func (r *Rollback) RollbackStep(stepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return newError(KindCheckpoint, "rollback", "rollback_step", "no active workflow", nil)
	}
	idx := -1
	for i, c := range r.active.Checkpoints {
		if c.StepID == stepID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return newError(KindCheckpoint, "rollback", "rollback_step", fmt.Sprintf("no checkpoint for step %q", stepID), nil)
	}
	if err := r.undoCheckpoint(r.active.Checkpoints[idx]); err != nil {
		return err
	}
	r.active.Checkpoints = append(r.active.Checkpoints[:idx], r.active.Checkpoints[idx+1:]...)
	return nil
}

// RollbackToStep undoes every checkpoint after stepID (exclusive),
// keeping stepID's own checkpoint and everything before it intact.
func (r *Rollback) RollbackToStep(stepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return newError(KindCheckpoint, "rollback", "rollback_to_step", "no active workflow", nil)
	}
	idx := -1
	for i, c := range r.active.Checkpoints {
		if c.StepID == stepID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return newError(KindCheckpoint, "rollback", "rollback_to_step", fmt.Sprintf("no checkpoint for step %q", stepID), nil)
	}
	for i := len(r.active.Checkpoints) - 1; i > idx; i-- {
		if err := r.undoCheckpoint(r.active.Checkpoints[i]); err != nil {
			return err
		}
	}
	r.active.Checkpoints = r.active.Checkpoints[:idx+1]
	return nil
}

// RollbackWorkflow undoes every checkpoint of the active workflow and
// marks it non-rollback-able.
func (r *Rollback) RollbackWorkflow() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return newError(KindCheckpoint, "rollback", "rollback_workflow", "no active workflow", nil)
	}
	for i := len(r.active.Checkpoints) - 1; i >= 0; i-- {
		if err := r.undoCheckpoint(r.active.Checkpoints[i]); err != nil {
			return err
		}
	}
	r.active.Checkpoints = nil
	r.active.CanRollback = false
	return nil
}

// CompleteWorkflow archives the active workflow as finished; success only
// affects the archived record, not the checkpoints (a completed workflow
// is no longer reversible through this type).
func (r *Rollback) CompleteWorkflow() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return
	}
	r.active.CanRollback = false
	r.archiveLocked(*r.active)
	r.active = nil
}

// DiscardWorkflow drops the active workflow's tracking without attempting
// any undo (used when a workflow's effects should simply be forgotten,
// e.g. it never mutated anything).
func (r *Rollback) DiscardWorkflow() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
}

// Summary returns the active workflow's rollback state, or false if none
// is active.
func (r *Rollback) Summary() (RollbackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return RollbackState{}, false
	}
	return *r.active, true
}

func (r *Rollback) archiveLocked(s RollbackState) {
	r.history = append(r.history, s)
	if len(r.history) > maxRollbackHistory {
		r.history = r.history[len(r.history)-maxRollbackHistory:]
	}
}

// History returns archived (completed or discarded-while-active) workflow
// rollback states, oldest first, bounded at maxRollbackHistory.
func (r *Rollback) History() []RollbackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RollbackState(nil), r.history...)
}
