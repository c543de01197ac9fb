package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EditArgs is the Edit tool's argument struct.
type EditArgs struct {
	Path       string `json:"path" jsonschema:"required,description=Absolute path to the file to edit"`
	OldString  string `json:"old_string" jsonschema:"required,description=Exact text to replace"`
	NewString  string `json:"new_string" jsonschema:"required,description=Replacement text"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"description=Replace all occurrences instead of requiring exactly one"`
}

// EditTool performs an exact string substitution against a file's current
// content, byte-for-byte, with no reformatting of surrounding whitespace.
type EditTool struct{}

func NewEditTool() *EditTool { return &EditTool{} }

func (t *EditTool) Info() Info {
	return Info{
		Name:                 "Edit",
		Description:          "Replace an exact string occurrence in a file with another string.",
		Category:             CategoryFilesystem,
		RequiresConfirmation: true,
		ArgsExample:          EditArgs{},
	}
}

func (t *EditTool) Paths(args map[string]any) []string {
	if p, ok := args["path"].(string); ok {
		return []string{p}
	}
	return nil
}

func (t *EditTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a EditArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Path == "" {
		return Fail(`missing required argument "path"`), nil
	}
	if !filepath.IsAbs(a.Path) {
		return Fail(fmt.Sprintf("path must be absolute: %s", a.Path)), nil
	}
	if a.OldString == a.NewString {
		return Fail("old_string and new_string are identical"), nil
	}

	content, err := os.ReadFile(a.Path)
	if err != nil {
		return Fail(fmt.Sprintf("read %s: %v", a.Path, err)), nil
	}
	text := string(content)

	count := strings.Count(text, a.OldString)
	if count == 0 {
		return Fail(fmt.Sprintf("old_string not found in %s", a.Path)), nil
	}
	if count > 1 && !a.ReplaceAll {
		return Fail(fmt.Sprintf("old_string is not unique in %s: found %d occurrences, use replace_all or add context to disambiguate", a.Path, count)), nil
	}

	var updated string
	var replacements int
	if a.ReplaceAll {
		updated = strings.ReplaceAll(text, a.OldString, a.NewString)
		replacements = count
	} else {
		updated = strings.Replace(text, a.OldString, a.NewString, 1)
		replacements = 1
	}

	tmp := a.Path + ".forge-tmp"
	info, statErr := os.Stat(a.Path)
	mode := os.FileMode(0o644)
	if statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(tmp, []byte(updated), mode); err != nil {
		return Fail(fmt.Sprintf("write %s: %v", a.Path, err)), nil
	}
	if err := os.Rename(tmp, a.Path); err != nil {
		_ = os.Remove(tmp)
		return Fail(fmt.Sprintf("replace %s: %v", a.Path, err)), nil
	}

	result := Ok(map[string]any{"path": a.Path})
	result.Metadata = map[string]any{"replacements": replacements}
	return result, nil
}
