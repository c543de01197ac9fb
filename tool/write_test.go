package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTool_CreatesParentDirsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "out.txt")

	tool := NewWriteTool("")
	result, err := tool.Execute(context.Background(), &ExecutionContext{}, map[string]any{
		"path": path, "content": "hello",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, true, result.Metadata["created"])
	assert.Equal(t, 5, result.Metadata["bytes_written"])

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestWriteTool_OverwriteReportsNotCreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	tool := NewWriteTool("")
	result, err := tool.Execute(context.Background(), &ExecutionContext{}, map[string]any{
		"path": path, "content": "new",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, false, result.Metadata["created"])
}

func TestWriteTool_RejectsRelativePath(t *testing.T) {
	tool := NewWriteTool("")
	result, err := tool.Execute(context.Background(), &ExecutionContext{}, map[string]any{
		"path": "relative.txt", "content": "x",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestWriteTool_RejectsEscapeFromAllowedRoot(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteTool(dir)

	result, err := tool.Execute(context.Background(), &ExecutionContext{}, map[string]any{
		"path": "/etc/passwd", "content": "x",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestWriteTool_AllowsPathWithinRoot(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteTool(dir)
	path := filepath.Join(dir, "inside.txt")

	result, err := tool.Execute(context.Background(), &ExecutionContext{}, map[string]any{
		"path": path, "content": "ok",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}
