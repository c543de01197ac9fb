// Package hook fires user-configured shell commands in response to tool
// lifecycle events (pre/post), with sanitized environments, timeouts, and
// block-on-nonzero-exit semantics for pre-hooks.
package hook

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
)

// DefaultTimeout matches the 10s default the source executor uses per hook.
const DefaultTimeout = 10 * time.Second

// DefaultMaxResults bounds the number of results execute_hooks retains.
const DefaultMaxResults = 100

// dangerousEnvVars are interpreter/loader injection vectors a hook's own
// `env` block is never allowed to set, even if the hook author intends it.
var dangerousEnvVars = map[string]bool{
	"LD_PRELOAD": true, "LD_LIBRARY_PATH": true,
	"DYLD_INSERT_LIBRARIES": true, "DYLD_LIBRARY_PATH": true,
	"PYTHONPATH": true, "PYTHONSTARTUP": true, "PYTHONHOME": true,
	"RUBYLIB": true, "RUBYOPT": true,
	"PERL5LIB": true, "PERL5OPT": true,
	"NODE_PATH": true, "NODE_OPTIONS": true,
	"BASH_ENV": true, "ENV": true, "ZDOTDIR": true,
	"SUDO_ASKPASS": true,
	"SSL_CERT_FILE": true, "SSL_CERT_DIR": true,
	"REQUESTS_CA_BUNDLE": true, "CURL_CA_BUNDLE": true,
	"GIT_EXEC_PATH": true, "GIT_TEMPLATE_DIR": true,
	"IFS": true, "CDPATH": true,
}

// Hook is a single registered shell command bound to an event pattern.
type Hook struct {
	EventPattern string
	Command      string
	Env          map[string]string
	WorkingDir   string
	Timeout      time.Duration
}

// Event is fired against the registry; its To Env representation feeds
// FORGE_-prefixed variables into the hook's environment.
type Event struct {
	Pattern string
	Vars    map[string]string // e.g. FORGE_TOOL_NAME, FORGE_TOOL_ARGS
}

// ToolPreEvent builds the "tool:<name>:pre" event for toolName/args.
func ToolPreEvent(toolName string, args map[string]any) Event {
	return Event{Pattern: fmt.Sprintf("tool:%s:pre", toolName), Vars: toolEnv(toolName, args)}
}

// ToolPostEvent builds the "tool:<name>:post" event for toolName/args.
func ToolPostEvent(toolName string, args map[string]any) Event {
	return Event{Pattern: fmt.Sprintf("tool:%s:post", toolName), Vars: toolEnv(toolName, args)}
}

func toolEnv(toolName string, args map[string]any) map[string]string {
	vars := map[string]string{"FORGE_TOOL_NAME": toolName}
	for k, v := range args {
		vars["FORGE_TOOL_ARG_"+strings.ToUpper(k)] = fmt.Sprintf("%v", v)
	}
	return vars
}

// Result is the outcome of running a single hook.
type Result struct {
	Hook     Hook
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
	Err      error
}

// Success reports whether the hook ran to a clean zero exit.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut && r.Err == nil
}

// ShouldContinue is the pre-hook gating signal: a non-continuing result
// blocks the tool call.
func (r Result) ShouldContinue() bool {
	return r.Success()
}

// BlockedError is returned when a pre-event hook chain blocks a tool call.
type BlockedError struct {
	Result Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("operation blocked by hook %q: exit code %d", e.Result.Hook.EventPattern, e.Result.ExitCode)
}

// Registry looks up hooks matching an event pattern, in declaration order.
type Registry struct {
	mu    sync.Mutex
	hooks []Hook
}

// NewRegistry builds an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends h to the registry.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Matching returns hooks whose pattern matches the event pattern, in
// declaration order. Patterns support a trailing "*" wildcard.
func (r *Registry) Matching(eventPattern string) []Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Hook
	for _, h := range r.hooks {
		if patternMatches(h.EventPattern, eventPattern) {
			out = append(out, h)
		}
	}
	return out
}

func patternMatches(hookPattern, eventPattern string) bool {
	if hookPattern == eventPattern {
		return true
	}
	if strings.HasSuffix(hookPattern, "*") {
		return strings.HasPrefix(eventPattern, strings.TrimSuffix(hookPattern, "*"))
	}
	return false
}
