package tool

import (
	"context"

	"github.com/forgecode/forge/hook"
	"github.com/forgecode/forge/permission"
)

// PermissionAdapter satisfies PermissionChecker by delegating to a concrete
// permission.Checker. It exists because tool declares PermissionChecker as
// a local interface (ExecutionContext is the explicit handle linking these
// independent components, rather than tool importing permission directly
// for its concrete type) — permission.Checker.Check returns permission.Result,
// which carries a permission.Level, not the bare string tool.PermissionResult
// expects, so a structural adapter is required rather than duck typing.
type PermissionAdapter struct {
	Checker *permission.Checker
}

func NewPermissionAdapter(checker *permission.Checker) *PermissionAdapter {
	return &PermissionAdapter{Checker: checker}
}

func (a *PermissionAdapter) Check(toolName string, args map[string]any) PermissionResult {
	result := a.Checker.Check(toolName, args)
	return PermissionResult{Level: string(result.Level), Reason: result.Reason}
}

// HookAdapter satisfies HookFirer by delegating to a concrete hook.Executor,
// translating its Execute(event, stopOnFailure) shape into the FirePre/
// FirePost calls the runtime's dispatch pipeline makes.
type HookAdapter struct {
	Executor *hook.Executor
}

func NewHookAdapter(executor *hook.Executor) *HookAdapter {
	return &HookAdapter{Executor: executor}
}

func (a *HookAdapter) FirePre(ctx context.Context, toolName string, args map[string]any) (blocked bool, reason string) {
	results := a.Executor.Execute(ctx, hook.ToolPreEvent(toolName, args), true)
	for _, r := range results {
		if !r.ShouldContinue() {
			if r.Err != nil {
				return true, r.Err.Error()
			}
			return true, r.Stderr
		}
	}
	return false, ""
}

func (a *HookAdapter) FirePost(ctx context.Context, toolName string, args map[string]any, result Result) {
	a.Executor.Execute(ctx, hook.ToolPostEvent(toolName, args), false)
}
