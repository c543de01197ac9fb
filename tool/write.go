package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteArgs is the Write tool's argument struct.
type WriteArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Absolute path to write"`
	Content string `json:"content" jsonschema:"required,description=File content to write"`
}

// WriteTool atomically replaces a file's content, creating parent
// directories as needed.
type WriteTool struct {
	// AllowedRoot, if set, confines writes to paths resolving within it —
	// the configured "allowed root" the path-traversal check tests
	// against.
	AllowedRoot string
}

func NewWriteTool(allowedRoot string) *WriteTool { return &WriteTool{AllowedRoot: allowedRoot} }

func (t *WriteTool) Info() Info {
	return Info{
		Name:                 "Write",
		Description:          "Write content to a file, creating it (and parent directories) if necessary.",
		Category:             CategoryFilesystem,
		RequiresConfirmation: true,
		ArgsExample:          WriteArgs{},
	}
}

func (t *WriteTool) Paths(args map[string]any) []string {
	if p, ok := args["path"].(string); ok {
		return []string{p}
	}
	return nil
}

func (t *WriteTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a WriteArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Path == "" {
		return Fail(`missing required argument "path"`), nil
	}
	if !filepath.IsAbs(a.Path) {
		return Fail(fmt.Sprintf("path must be absolute: %s", a.Path)), nil
	}

	clean := filepath.Clean(a.Path)
	if t.AllowedRoot != "" {
		rel, err := filepath.Rel(t.AllowedRoot, clean)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			return Fail(fmt.Sprintf("path %s escapes the allowed root", a.Path)), nil
		}
	}

	_, statErr := os.Stat(clean)
	created := os.IsNotExist(statErr)

	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return Fail(fmt.Sprintf("create parent directories for %s: %v", clean, err)), nil
	}

	tmp := clean + ".forge-tmp"
	if err := os.WriteFile(tmp, []byte(a.Content), 0o644); err != nil {
		return Fail(fmt.Sprintf("write %s: %v", clean, err)), nil
	}
	if err := os.Rename(tmp, clean); err != nil {
		_ = os.Remove(tmp)
		return Fail(fmt.Sprintf("replace %s: %v", clean, err)), nil
	}

	result := Ok(map[string]any{"path": clean})
	result.Metadata = map[string]any{
		"created":       created,
		"bytes_written": len(a.Content),
	}
	return result, nil
}
