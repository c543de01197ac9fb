package hook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	hclog "github.com/hashicorp/go-hclog"
)

// Executor runs hooks matching fired events via the registry.
type Executor struct {
	Registry       *Registry
	DefaultTimeout time.Duration
	WorkingDir     string
	Logger         hclog.Logger // optional: logs each hook's outcome (Debug on success, Warn on failure)
	MaxResults     int
}

// NewExecutor builds an Executor against registry, defaulting timeout and
// working directory when zero-valued.
func NewExecutor(registry *Registry, workingDir string) *Executor {
	return &Executor{
		Registry:       registry,
		DefaultTimeout: DefaultTimeout,
		WorkingDir:     workingDir,
		MaxResults:     DefaultMaxResults,
	}
}

// Execute runs every hook matching event's pattern, in declaration order.
// If stopOnFailure is set, the chain halts at the first result whose
// ShouldContinue() is false.
func (e *Executor) Execute(ctx context.Context, event Event, stopOnFailure bool) []Result {
	hooks := e.Registry.Matching(event.Pattern)
	if len(hooks) == 0 {
		return nil
	}

	maxResults := e.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var results []Result
	for _, h := range hooks {
		result := e.runHook(ctx, h, event)
		results = append(results, result)

		if e.Logger != nil {
			if result.Success() {
				e.Logger.Debug("hook succeeded", "pattern", h.EventPattern, "exit_code", result.ExitCode, "duration", result.Duration)
			} else {
				e.Logger.Warn("hook failed", "pattern", h.EventPattern, "exit_code", result.ExitCode, "timed_out", result.TimedOut)
			}
		}

		if stopOnFailure && !result.ShouldContinue() {
			break
		}
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

func (e *Executor) runHook(ctx context.Context, h Hook, event Event) Result {
	start := time.Now()

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = e.DefaultTimeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
	}

	workDir := h.WorkingDir
	if workDir == "" {
		workDir = e.WorkingDir
	}

	env := buildEnv(workDir, event, h.Env)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", h.Command)
	cmd.Dir = workDir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{Hook: h, ExitCode: -1, Duration: duration, TimedOut: true,
			Err: fmt.Errorf("hook timed out after %s", timeout)}
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{Hook: h, ExitCode: exitErr.ExitCode(), Stdout: stdout.String(), Stderr: stderr.String(), Duration: duration}
		}
		return Result{Hook: h, ExitCode: -1, Duration: duration, Err: fmt.Errorf("failed to execute hook: %w", err)}
	}

	return Result{Hook: h, ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String(), Duration: duration}
}

// buildEnv layers: process environment, then event-provided vars, then the
// hook's own env (minus anything on the deny-list), then FORGE_WORKING_DIR.
func buildEnv(workDir string, event Event, hookEnv map[string]string) []string {
	base := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				base[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range event.Vars {
		base[k] = v
	}
	for k, v := range hookEnv {
		if dangerousEnvVars[upper(k)] {
			continue
		}
		base[k] = v
	}
	base["FORGE_WORKING_DIR"] = workDir

	out := make([]string, 0, len(base))
	for k, v := range base {
		out = append(out, k+"="+v)
	}
	return out
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
