package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/forgecode/forge/agent"
)

// StepExecutor runs a single workflow step by spawning an agent through
// the agent Manager, per spec §4.10's five-step per-step contract:
// evaluate condition, resolve agent type, spawn with a bounded timeout,
// retry on failure, and record the result (including any undo ids the
// step committed).
//
// Grounded on original_source's workflow execution contract (no single
// Python file implements this cleanly — commands.py dispatches steps but
// defers to the graph/rollback modules for the mechanics this type
// combines), rebuilt around this repo's agent.Manager.Spawn/Wait/Cancel.
type StepExecutor struct {
	manager *agent.Manager
}

// NewStepExecutor builds a StepExecutor backed by manager.
func NewStepExecutor(manager *agent.Manager) *StepExecutor {
	return &StepExecutor{manager: manager}
}

// Execute runs step, given the accumulated results of steps that have
// already completed (used both for condition evaluation and to fail fast
// if a dependency did not succeed).
func (e *StepExecutor) Execute(ctx context.Context, step Step, state *State) StepResult {
	result := StepResult{StepID: step.ID, Started: time.Now()}

	for _, dep := range step.DependsOn {
		depResult, ok := state.Results[dep]
		if !ok || depResult.Status != StatusSucceeded {
			result.Status = StatusSkipped
			result.Error = fmt.Sprintf("dependency %q did not succeed", dep)
			result.Finished = time.Now()
			return result
		}
	}

	ok, err := evalCondition(step.Condition, func(stepID string) (bool, bool) {
		r, known := state.Results[stepID]
		return r.Status == StatusSucceeded, known
	})
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		result.Finished = time.Now()
		return result
	}
	if !ok {
		result.Status = StatusSkipped
		result.Error = "condition not met"
		result.Finished = time.Now()
		return result
	}

	task := step.Description
	if step.Inputs != nil {
		if t, ok := step.Inputs["task"].(string); ok && t != "" {
			task = t
		}
	}

	maxAttempts := step.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		agentID, runResult, runErr := e.runOnce(ctx, step, task)
		if agentID != "" {
			result.AgentID = agentID
			result.UndoIDs = e.undoIDsFor(agentID)
		}
		if runErr == nil && runResult.Success {
			result.Status = StatusSucceeded
			result.Output = runResult.Data
			result.Finished = time.Now()
			return result
		}
		if runErr != nil {
			lastErr = runErr
		} else {
			lastErr = fmt.Errorf("%s", runResult.Message)
		}
		if ctx.Err() != nil {
			break
		}
	}

	result.Status = StatusFailed
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	result.Finished = time.Now()
	return result
}

// runOnce spawns and waits for one attempt of step, returning the spawned
// agent's id (for undo-id retrieval) alongside its result.
func (e *StepExecutor) runOnce(ctx context.Context, step Step, task string) (string, *agent.Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if step.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	id, err := e.manager.Spawn(runCtx, step.Agent, agent.TaskContext{}, task, nil)
	if err != nil {
		return "", nil, newError(KindExecution, "executor", "spawn", fmt.Sprintf("spawning step %q", step.ID), err)
	}

	result, err := e.manager.Wait(runCtx, id)
	if err != nil {
		_ = e.manager.Cancel(id)
		if runCtx.Err() == context.DeadlineExceeded {
			return id, nil, newError(KindTimeout, "executor", "wait", fmt.Sprintf("step %q timed out after %s", step.ID, step.Timeout), err)
		}
		return id, nil, newError(KindExecution, "executor", "wait", fmt.Sprintf("waiting for step %q", step.ID), err)
	}
	return id, result, nil
}

// undoIDsFor retrieves the undo ids an agent committed, for attaching to
// the StepResult the Engine persists.
func (e *StepExecutor) undoIDsFor(agentID string) []string {
	a, ok := e.manager.Get(agentID)
	if !ok {
		return nil
	}
	return a.UndoIDs()
}
