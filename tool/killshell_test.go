package tool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/shell"
)

func TestKillShellTool_TerminatesRunningShell(t *testing.T) {
	shells := shell.NewManager()
	bash := NewBashTool(shells)
	kill := NewKillShellTool(shells)
	ec := &ExecutionContext{Cwd: t.TempDir()}

	result, err := bash.Execute(context.Background(), ec, map[string]any{
		"command": "sleep 10", "run_in_background": true,
	})
	require.NoError(t, err)
	bashID := result.Metadata["bash_id"].(string)

	time.Sleep(50 * time.Millisecond)
	killResult, err := kill.Execute(context.Background(), ec, map[string]any{"bash_id": bashID})
	require.NoError(t, err)
	require.True(t, killResult.Success)

	sh, ok := shells.Get(bashID)
	require.True(t, ok)
	assert.False(t, sh.IsRunning())
}

func TestKillShellTool_UnknownIDFails(t *testing.T) {
	shells := shell.NewManager()
	kill := NewKillShellTool(shells)
	result, err := kill.Execute(context.Background(), &ExecutionContext{}, map[string]any{"bash_id": "nope"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
