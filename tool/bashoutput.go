package tool

import (
	"context"
	"fmt"

	"github.com/forgecode/forge/shell"
)

// BashOutputArgs is the BashOutput tool's argument struct.
type BashOutputArgs struct {
	BashID string `json:"bash_id" jsonschema:"required,description=Background shell id returned by Bash"`
}

// BashOutputTool drains a background shell's output produced since the last
// read, without blocking on the process.
type BashOutputTool struct {
	Shells *shell.Manager
}

func NewBashOutputTool(shells *shell.Manager) *BashOutputTool { return &BashOutputTool{Shells: shells} }

func (t *BashOutputTool) Info() Info {
	return Info{
		Name:        "BashOutput",
		Description: "Read new output from a background shell started by Bash.",
		Category:    CategoryExecution,
		ArgsExample: BashOutputArgs{},
	}
}

func (t *BashOutputTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a BashOutputArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	sh, ok := t.Shells.Get(a.BashID)
	if !ok {
		return Fail(fmt.Sprintf("no background shell with id %q", a.BashID)), nil
	}

	output := sh.GetNewOutput()
	result := Ok(map[string]any{
		"output":     output,
		"is_running": sh.IsRunning(),
		"status":     string(sh.Status),
		"exit_code":  sh.ExitCode,
	})
	result.Metadata = map[string]any{"truncated": sh.Truncated()}
	return result, nil
}
