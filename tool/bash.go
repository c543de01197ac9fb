package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"time"

	"github.com/forgecode/forge/shell"
)

const (
	bashDefaultTimeoutMS = 120000
	bashMaxTimeoutMS     = 600000
	bashMaxOutputSize    = 30000
)

// dangerousPatterns blocks the handful of catastrophic shell idioms no
// session should ever run, regardless of permission rules. Patterns avoid
// end anchors so piped/chained variants ("rm -rf / | cat") are still caught.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rm\s+(-[a-z]*r[a-z]*\s+)*-[a-z]*f[a-z]*\s+/(\s|;|\||&|$)`),
	regexp.MustCompile(`(?i)rm\s+(-[a-z]*f[a-z]*\s+)*-[a-z]*r[a-z]*\s+/(\s|;|\||&|$)`),
	regexp.MustCompile(`(?i)rm\s+-rf\s+/\*`),
	regexp.MustCompile(`(?i)rm\s+-fr\s+/\*`),
	regexp.MustCompile(`(?i)mkfs\.`),
	regexp.MustCompile(`(?i)dd\s+.*of=/dev/[sh]d`),
	regexp.MustCompile(`(?i)>\s*/dev/[sh]d`),
	regexp.MustCompile(`(?i)chmod\s+(-[a-z]*R[a-z]*\s+)*777\s+/(\s|;|\||&|$)`),
	regexp.MustCompile(`(?i)chmod\s+777\s+(-[a-z]*R[a-z]*\s+)+/(\s|;|\||&|$)`),
	regexp.MustCompile(`:\(\)\s*\{`),
	regexp.MustCompile(`(?i)mv\s+/\s`),
	regexp.MustCompile(`(?i)chown\s+(-[a-z]*R[a-z]*\s+)*\S+\s+/(\s|;|\||&|$)`),
	regexp.MustCompile(`(?i)curl\s+.*\|\s*(ba)?sh`),
	regexp.MustCompile(`(?i)wget\s+.*\|\s*(ba)?sh`),
}

// BashArgs is the Bash tool's argument struct. Timeout is expressed in
// milliseconds (LLM-facing convention); the conversion to a time.Duration
// happens only at the boundary, when the command is run.
type BashArgs struct {
	Command         string `json:"command" jsonschema:"required,description=Shell command to execute"`
	Description     string `json:"description,omitempty" jsonschema:"description=Clear 5-10 word description of the command"`
	TimeoutMS       int    `json:"timeout,omitempty" jsonschema:"description=Timeout in milliseconds, max 600000"`
	RunInBackground bool   `json:"run_in_background,omitempty"`
}

// BashTool executes a shell command in the configured working directory,
// in the foreground (bounded by an outer timeout) or detached in the
// background via the Shell Manager.
type BashTool struct {
	Shells *shell.Manager
}

func NewBashTool(shells *shell.Manager) *BashTool { return &BashTool{Shells: shells} }

func (t *BashTool) Info() Info {
	return Info{
		Name: "Bash",
		Description: "Execute a shell command. For terminal operations like git, npm, docker — " +
			"not for file operations, use the filesystem tools instead.",
		Category:             CategoryExecution,
		RequiresConfirmation: true,
		ArgsExample:          BashArgs{},
	}
}

// BashTool does not implement MutatingPaths: unlike Write/Edit it has no
// declarative file target, so undo capture/commit here is driven by
// detectMutatedPaths inside Execute rather than the registry's generic
// step 5/7 handling.

func (t *BashTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a BashArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Command == "" {
		return Fail(`missing required argument "command"`), nil
	}
	timeoutMS := a.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = bashDefaultTimeoutMS
	}
	if timeoutMS > bashMaxTimeoutMS {
		return Fail(fmt.Sprintf("timeout exceeds maximum: %dms", bashMaxTimeoutMS)), nil
	}

	if err := checkDangerousCommand(a.Command); err != nil {
		return Fail(err.Error()), nil
	}
	if err := validateWorkingDir(ec.Cwd); err != nil {
		return Fail(err.Error()), nil
	}

	detected := detectMutatedPaths(a.Command, ec.Cwd)
	if ec.Undo != nil {
		for _, p := range detected {
			if _, statErr := os.Stat(p); statErr == nil {
				_ = ec.Undo.CaptureBefore(ec.SessionID, p)
			}
		}
	}

	if a.RunInBackground {
		if ec.Undo != nil && len(detected) > 0 {
			ec.Undo.DiscardPending(ec.SessionID)
		}
		return t.runBackground(a.Command, ec.Cwd)
	}

	result := t.runForeground(ctx, a.Command, ec.Cwd, timeoutMS)
	if ec.Undo != nil && len(detected) > 0 {
		if result.Success {
			preview := a.Command
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
			_, _ = ec.Undo.Commit(ec.SessionID, "Bash", "Bash: "+preview, a.Command)
		} else {
			ec.Undo.DiscardPending(ec.SessionID)
		}
	}
	return result, nil
}

func (t *BashTool) runForeground(ctx context.Context, command, cwd string, timeoutMS int) Result {
	timeout := time.Duration(timeoutMS) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return Fail(fmt.Sprintf("command timed out after %dms", timeoutMS))
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	truncated := false
	if len(output) > bashMaxOutputSize {
		output = output[:bashMaxOutputSize] + fmt.Sprintf("\n\n[Output truncated at %d characters]", bashMaxOutputSize)
		truncated = true
	}

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return Fail(fmt.Sprintf("failed to execute command: %v", err))
	}

	result := Result{
		Success: exitCode == 0,
		Output:  output,
		Metadata: map[string]any{
			"exit_code": exitCode,
			"truncated": truncated,
		},
	}
	if exitCode != 0 {
		result.Error = fmt.Sprintf("command failed with exit code %d", exitCode)
	}
	return result
}

func (t *BashTool) runBackground(command, cwd string) (Result, error) {
	sh, err := t.Shells.Create(command, cwd, nil)
	if err != nil {
		return Fail(fmt.Sprintf("failed to start background shell: %v", err)), nil
	}
	result := Ok(fmt.Sprintf("Started background shell: %s\nCommand: %s\nUse BashOutput with bash_id=%q to read output.",
		sh.ID, command, sh.ID))
	result.Metadata = map[string]any{"bash_id": sh.ID}
	return result, nil
}

func checkDangerousCommand(command string) error {
	for _, re := range dangerousPatterns {
		if re.MatchString(command) {
			return fmt.Errorf("command blocked for security: matches dangerous pattern")
		}
	}
	return nil
}

func validateWorkingDir(cwd string) error {
	info, err := os.Stat(cwd)
	if err != nil {
		return fmt.Errorf("working directory does not exist: %s", cwd)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory is not a directory: %s", cwd)
	}
	return nil
}
