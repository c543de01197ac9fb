package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/forgecode/forge/agent"
	"github.com/forgecode/forge/undo"
)

// Engine drives a workflow's compiled Graph through Kahn-ordered execution
// batches, checkpointing State after every batch (a batch's step results
// are recorded together once all of its steps finish) and recording each step's
// undo ledger for later rollback. Cancellation transitions the whole run
// to CANCELLED at the next batch boundary: steps already running finish
// (or are individually timed out), but no new batch starts.
//
// Grounded on original_source's workflows/commands.py dispatch loop (the
// batch-by-batch drive and cancel/checkpoint hooks) layered over this
// repo's own graph.go/scheduler.go/executor.go/checkpoint.go/rollback.go,
// since commands.py itself delegates the actual scheduling and rollback
// mechanics to graph.py and rollback.py the way this package splits them
// across files.
type Engine struct {
	executor   *StepExecutor
	checkpoint *CheckpointStore
	rollback   *Rollback

	mu         sync.Mutex
	cancelled  map[string]bool
}

// NewEngine wires an Engine from its collaborators. checkpointDir is
// where per-workflow-run state snapshots are written; pass "" to disable
// checkpointing.
func NewEngine(manager *agent.Manager, undoStore *undo.Store, checkpointDir string) (*Engine, error) {
	e := &Engine{
		executor:  NewStepExecutor(manager),
		rollback:  NewRollback(undoStore),
		cancelled: make(map[string]bool),
	}
	if checkpointDir != "" {
		cp, err := NewCheckpointStore(checkpointDir)
		if err != nil {
			return nil, err
		}
		e.checkpoint = cp
	}
	return e, nil
}

// Run compiles def, validates its graph, and executes it to completion
// (or first unrecoverable failure / cancellation), returning the final
// State. If resumeFrom is non-nil, execution continues from that
// checkpoint's recorded results instead of starting fresh.
func (e *Engine) Run(ctx context.Context, def Definition, resumeFrom *State) (*State, error) {
	graph := BuildGraph(def)
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	batches, err := graph.Batches()
	if err != nil {
		return nil, err
	}

	state := resumeFrom
	if state == nil {
		state = NewState(uuid.NewString(), def)
	}
	state.Status = StatusRunning
	e.rollback.StartWorkflow(state.WorkflowID, def.Name)

	for _, batch := range batches {
		if e.isCancelled(state.WorkflowID) {
			state.Status = StatusCancelled
			e.saveCheckpoint(state)
			return state, nil
		}

		pending := pendingSteps(batch, state)
		if len(pending) == 0 {
			continue
		}

		results := e.runBatch(ctx, def, pending, state)
		for stepID, result := range results {
			state.Results[stepID] = result
			if result.Status == StatusSucceeded {
				checkpointErr := e.rollback.Checkpoint(stepID, stepID, result.AgentID, result.UndoIDs, nil)
				if checkpointErr != nil {
					return nil, checkpointErr
				}
			}
		}
		e.saveCheckpoint(state)

		if anyFailed(results) {
			state.Status = StatusFailed
			e.saveCheckpoint(state)
			return state, newError(KindExecution, "engine", "run",
				fmt.Sprintf("workflow %q failed", def.Name), nil)
		}
	}

	state.Status = StatusSucceeded
	e.rollback.CompleteWorkflow()
	if e.checkpoint != nil {
		_ = e.checkpoint.Delete(state.WorkflowID)
	}
	return state, nil
}

// pendingSteps filters batch down to steps that have not already
// completed in state (relevant on resume, where earlier batches' steps
// are already recorded as succeeded).
func pendingSteps(batch []string, state *State) []string {
	var out []string
	for _, id := range batch {
		if r, ok := state.Results[id]; ok && r.Status == StatusSucceeded {
			continue
		}
		out = append(out, id)
	}
	return out
}

func anyFailed(results map[string]StepResult) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}

// runBatch executes every step id in ids concurrently, since by
// construction a batch's steps share no dependency edge between them.
func (e *Engine) runBatch(ctx context.Context, def Definition, ids []string, state *State) map[string]StepResult {
	results := make(map[string]StepResult, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		step, ok := def.StepByID(id)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(step Step) {
			defer wg.Done()
			r := e.executor.Execute(ctx, step, state)
			mu.Lock()
			results[step.ID] = r
			mu.Unlock()
		}(step)
	}
	wg.Wait()
	return results
}

func (e *Engine) saveCheckpoint(state *State) {
	if e.checkpoint == nil {
		return
	}
	_ = e.checkpoint.Save(state)
}

// Cancel marks workflowID for cancellation at its next batch boundary.
func (e *Engine) Cancel(workflowID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled[workflowID] = true
}

func (e *Engine) isCancelled(workflowID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[workflowID]
}

// Resume loads workflowID's last checkpoint, if any, and re-runs it to
// completion, continuing from whichever steps had not yet succeeded.
func (e *Engine) Resume(ctx context.Context, workflowID string) (*State, error) {
	if e.checkpoint == nil {
		return nil, newError(KindCheckpoint, "engine", "resume", "checkpointing is disabled", nil)
	}
	state, err := e.checkpoint.Load(workflowID)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, state.Definition, state)
}

// Rollback exposes the engine's rollback layer so callers can reverse a
// completed or failed workflow's effects (e.g. a CLI "undo workflow"
// command) without reaching into engine internals.
func (e *Engine) Rollback() *Rollback {
	return e.rollback
}
