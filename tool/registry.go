package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RegistryError wraps a tool-registry-level failure, mirroring the
// teacher's {Component, Action, Message, Err} error shape.
type RegistryError struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Registry is the process-singleton catalog of tools dispatched by the
// agent loop.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]map[string]any
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), schemas: make(map[string]map[string]any)}
}

// Register adds a tool under its own declared name.
func (r *Registry) Register(t Tool) error {
	info := t.Info()
	if info.Name == "" {
		return &RegistryError{Component: "tool.Registry", Action: "Register", Message: "tool name must not be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[info.Name]; exists {
		return &RegistryError{Component: "tool.Registry", Action: "Register", Message: fmt.Sprintf("tool %q already registered", info.Name)}
	}
	r.tools[info.Name] = t
	if sp, ok := t.(SchemaProvider); ok {
		r.schemas[info.Name] = sp.ArgsSchema()
	} else {
		r.schemas[info.Name] = schemaFor(info.ArgsExample)
	}
	return nil
}

// schemaFor derives a tool's parameter JSON Schema from a zero-valued args
// struct, replacing hand-written parameter slices.
func schemaFor(argsExample any) map[string]any {
	if argsExample == nil {
		return map[string]any{"type": "object"}
	}
	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(argsExample)
	out := map[string]any{
		"type":       "object",
		"properties": schema.Properties,
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

// Unregister removes a tool by name, used when an MCP server disconnects
// and its tools must be pulled from the catalog.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the Info of every registered tool.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Info())
	}
	return out
}

// Schema returns the JSON Schema derived for name's argument struct.
func (r *Registry) Schema(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

var tracer = otel.Tracer("forge.tool")

// Execute runs the full Tool Runtime dispatch pipeline (spec §4.5) for a
// single tool call: hooks, permission, undo capture, the tool body itself,
// commit/discard, post-hooks.
func (r *Registry) Execute(ctx context.Context, ec *ExecutionContext, name string, args map[string]any) (Result, error) {
	ctx, span := tracer.Start(ctx, "tool.Execute", trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("session.id", ec.SessionID),
	))
	defer span.End()

	start := time.Now()
	result, err := r.dispatch(ctx, ec, name, args)
	span.SetAttributes(attribute.Bool("tool.success", result.Success))
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	recordMetrics(name, result.Success, time.Since(start))
	return result, err
}

func (r *Registry) dispatch(ctx context.Context, ec *ExecutionContext, name string, args map[string]any) (result Result, err error) {
	t, ok := r.Get(name)
	if !ok {
		return Fail(fmt.Sprintf("unknown tool %q", name)), nil
	}

	// Step 1: schema validation happens inside each tool's argument
	// decoding (mapstructure + required-field checks) — see args.go.

	// Step 2: dry-run short-circuit for mutating tools.
	if ec.DryRun {
		if mp, ok := t.(MutatingPaths); ok && len(mp.Paths(args)) > 0 {
			return Ok(map[string]any{"dry_run": true, "would_affect": mp.Paths(args)}), nil
		}
	}

	// Step 3: pre hooks.
	if ec.Hooks != nil {
		if blocked, reason := ec.Hooks.FirePre(ctx, name, args); blocked {
			return Fail(fmt.Sprintf("blocked by pre-hook: %s", reason)), nil
		}
	}

	// Step 4: permission engine.
	if ec.Permission != nil {
		perm := ec.Permission.Check(name, args)
		switch perm.Level {
		case "deny":
			return Fail(fmt.Sprintf("permission denied: %s", perm.Reason)), nil
		case "ask":
			// The runtime hands off to the UI via a ConfirmationRequest;
			// this package has no UI surface, so an unanswered ASK within
			// the core defaults to DENY per spec §4.5 step 4.
			return Fail(fmt.Sprintf("permission requires confirmation: %s", perm.Reason)), nil
		}
	}

	// Step 5: undo capture for declared mutation paths.
	if ec.Undo != nil {
		if mp, isMutating := t.(MutatingPaths); isMutating {
			for _, p := range mp.Paths(args) {
				if err := ec.Undo.CaptureBefore(ec.SessionID, p); err != nil {
					slog.Warn("undo: capture failed, proceeding without undo coverage", "path", p, "error", err)
				}
			}
		}
	}

	// Step 6: execute, trapping panics into a failed Result.
	result = func() (res Result) {
		defer func() {
			if rec := recover(); rec != nil {
				res = Fail(fmt.Sprintf("tool panic: %v", rec))
			}
		}()
		res, execErr := t.Execute(ctx, ec, args)
		if execErr != nil {
			return Fail(execErr.Error())
		}
		return res
	}()

	// Step 7: commit or discard undo. The committed entry id is surfaced on
	// the result so callers above the runtime (the workflow step executor)
	// can thread it into a per-step rollback checkpoint without this
	// package knowing about workflows.
	if ec.Undo != nil {
		if result.Success {
			id, commitErr := ec.Undo.Commit(ec.SessionID, name, describeCall(name, args), commandOf(args))
			if commitErr != nil {
				slog.Warn("undo: commit failed", "tool", name, "error", commitErr)
			} else if id != "" {
				if result.Metadata == nil {
					result.Metadata = map[string]any{}
				}
				result.Metadata["undo_id"] = id
			}
		} else {
			ec.Undo.DiscardPending(ec.SessionID)
		}
	}

	// Step 8: post hooks.
	if ec.Hooks != nil {
		ec.Hooks.FirePost(ctx, name, args, result)
	}

	return result, nil
}

func describeCall(name string, args map[string]any) string {
	return fmt.Sprintf("%s(%v)", name, args)
}

func commandOf(args map[string]any) string {
	if cmd, ok := args["command"].(string); ok {
		return cmd
	}
	return ""
}
