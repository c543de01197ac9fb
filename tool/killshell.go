package tool

import (
	"context"
	"fmt"

	"github.com/forgecode/forge/shell"
)

// KillShellArgs is the KillShell tool's argument struct.
type KillShellArgs struct {
	BashID string `json:"bash_id" jsonschema:"required,description=Background shell id to terminate"`
}

// KillShellTool terminates a background shell started by Bash.
type KillShellTool struct {
	Shells *shell.Manager
}

func NewKillShellTool(shells *shell.Manager) *KillShellTool { return &KillShellTool{Shells: shells} }

func (t *KillShellTool) Info() Info {
	return Info{
		Name:                 "KillShell",
		Description:          "Terminate a running background shell.",
		Category:             CategoryExecution,
		RequiresConfirmation: true,
		ArgsExample:          KillShellArgs{},
	}
}

func (t *KillShellTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a KillShellArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	sh, ok := t.Shells.Get(a.BashID)
	if !ok {
		return Fail(fmt.Sprintf("no background shell with id %q", a.BashID)), nil
	}
	if !sh.IsRunning() {
		return Ok(map[string]any{"status": string(sh.Status)}), nil
	}
	if err := sh.Kill(); err != nil {
		return Fail(fmt.Sprintf("kill shell %s: %v", a.BashID, err)), nil
	}
	return Ok(map[string]any{"status": string(sh.Status)}), nil
}
