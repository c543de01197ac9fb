// Package tool implements the Tool Runtime (C5): schema validation,
// permission/hook/undo gating, dispatch to a concrete tool body, and a
// catalog of built-in tools (Read/Write/Edit/Glob/Grep/Bash/BashOutput/
// KillShell/WebFetch).
package tool

import (
	"context"
	"time"
)

// Category tags a tool for permission "category:" pattern matching.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryExecution  Category = "execution"
	CategoryNetwork    Category = "network"
	CategoryMCP        Category = "mcp"
	CategoryOther      Category = "other"
)

// Info describes a tool's LLM-facing contract.
type Info struct {
	Name                 string
	Description          string
	Category             Category
	RequiresConfirmation bool
	// ArgsExample is a zero-valued args struct (or a pointer to one); its JSON Schema
	// is derived via invopop/jsonschema rather than hand-written Parameter
	// slices (see Registry.Schema).
	ArgsExample any
}

// Result is always produced by a tool call, success or failure — never an
// uncaught exception across the runtime boundary.
type Result struct {
	Success  bool           `json:"success"`
	Output   any            `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Fail builds a failure Result with the given error message.
func Fail(err string) Result {
	return Result{Success: false, Error: err}
}

// Ok builds a success Result wrapping output.
func Ok(output any) Result {
	return Result{Success: true, Output: output}
}

// MutatingPaths is implemented by tools that touch specific files, so the
// runtime can snapshot them before dispatch (step 5 of the dispatch
// pipeline). Tools that don't declare paths (Glob, Grep, WebFetch) skip
// the undo-capture step.
type MutatingPaths interface {
	// Paths returns the absolute file paths args declares it will mutate.
	Paths(args map[string]any) []string
}

// SchemaProvider is implemented by tools whose argument schema isn't a Go
// struct known at compile time (MCP tools get their schema from the remote
// server at connect time). When present, the Registry uses it in place of
// reflecting Info.ArgsExample.
type SchemaProvider interface {
	ArgsSchema() map[string]any
}

// Tool is the capability set every concrete tool implements. Tools are
// plain values keyed by name in the Registry, not subclasses of a shared
// framework type — no tool-runtime identity leaks across the boundary.
type Tool interface {
	Info() Info
	Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error)
}

// ExecutionContext carries everything a tool body needs besides its
// arguments: cwd, an outer deadline, dry-run, and handles into the
// session's permission/hook/undo state.
type ExecutionContext struct {
	Cwd       string
	Timeout   time.Duration
	DryRun    bool
	SessionID string

	Permission PermissionChecker
	Hooks      HookFirer
	Undo       UndoStore
}

// PermissionChecker is the subset of permission.Checker the runtime needs,
// expressed as an interface here to avoid tool -> permission import
// coupling beyond what's necessary (ExecutionContext is the explicit
// handle the design notes call for instead of mutual imports).
type PermissionChecker interface {
	Check(toolName string, args map[string]any) PermissionResult
}

// PermissionResult mirrors permission.Result's shape without importing the
// permission package's Level type directly, so tool stays leaf-level.
type PermissionResult struct {
	Level  string // "allow", "ask", "deny"
	Reason string
}

// HookFirer is the subset of hook.Executor the runtime needs.
type HookFirer interface {
	FirePre(ctx context.Context, toolName string, args map[string]any) (blocked bool, reason string)
	FirePost(ctx context.Context, toolName string, args map[string]any, result Result)
}

// UndoStore is the subset of undo.Store the runtime needs.
type UndoStore interface {
	CaptureBefore(sessionID, path string) error
	Commit(sessionID, toolName, description, command string) (string, error)
	DiscardPending(sessionID string)
}
