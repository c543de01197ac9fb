package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrepTool_FilesWithMatchesMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("func Foo() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("func Bar() {}\n"), 0o644))

	tool := NewGrepTool()
	result, err := tool.Execute(context.Background(), &ExecutionContext{Cwd: dir}, map[string]any{
		"pattern": "func Foo",
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	out := result.Output.(map[string]any)
	assert.Equal(t, 1, out["count"])
}

func TestGrepTool_ZeroMatchesIsSuccessNotError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package x\n"), 0o644))

	tool := NewGrepTool()
	result, err := tool.Execute(context.Background(), &ExecutionContext{Cwd: dir}, map[string]any{
		"pattern": "nope-not-here",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestGrepTool_ContentModeReturnsLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\nworld\nhello again\n"), 0o644))

	tool := NewGrepTool()
	result, err := tool.Execute(context.Background(), &ExecutionContext{Cwd: dir}, map[string]any{
		"pattern": "hello", "output_mode": "content",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	out := result.Output.(map[string]any)
	assert.Equal(t, 2, out["count"])
}

func TestGrepTool_TypeFilterRestrictsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("match"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("match"), 0o644))

	tool := NewGrepTool()
	result, err := tool.Execute(context.Background(), &ExecutionContext{Cwd: dir}, map[string]any{
		"pattern": "match", "type": "go",
	})
	require.NoError(t, err)
	out := result.Output.(map[string]any)
	assert.Equal(t, 1, out["count"])
}

func TestGrepTool_InvalidPatternFails(t *testing.T) {
	dir := t.TempDir()
	tool := NewGrepTool()
	result, err := tool.Execute(context.Background(), &ExecutionContext{Cwd: dir}, map[string]any{
		"pattern": "(unclosed",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
