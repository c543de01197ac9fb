package tool

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GlobArgs is the Glob tool's argument struct.
type GlobArgs struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Glob pattern, e.g. **/*.go"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search, defaults to the execution cwd"`
}

// GlobTool recursively matches a glob pattern rooted at a directory,
// returning paths sorted by modification time (most recent first).
type GlobTool struct{}

func NewGlobTool() *GlobTool { return &GlobTool{} }

func (t *GlobTool) Info() Info {
	return Info{
		Name:        "Glob",
		Description: "Find files matching a glob pattern, sorted by modification time.",
		Category:    CategoryFilesystem,
		ArgsExample: GlobArgs{},
	}
}

type globMatch struct {
	path    string
	modTime time.Time
}

func (t *GlobTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a GlobArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Pattern == "" {
		return Fail(`missing required argument "pattern"`), nil
	}
	root := a.Path
	if root == "" {
		root = ec.Cwd
	}
	if root == "" {
		root = "."
	}

	var matches []globMatch
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		ok, matchErr := matchGlobPattern(a.Pattern, rel)
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			return nil
		}
		info, infoErr := d.Info()
		modTime := time.Time{}
		if infoErr == nil {
			modTime = info.ModTime()
		}
		matches = append(matches, globMatch{path: path, modTime: modTime})
		return nil
	})
	if err != nil {
		return Fail(fmt.Sprintf("glob %s under %s: %v", a.Pattern, root, err)), nil
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}
	return Ok(map[string]any{"paths": paths, "count": len(paths)}), nil
}

// matchGlobPattern supports "**" (match across directory boundaries, zero or
// more segments) in addition to filepath.Match's single-segment "*"/"?"/"[]".
func matchGlobPattern(pattern, rel string) (bool, error) {
	if !containsDoubleStar(pattern) {
		return filepath.Match(pattern, rel)
	}

	patternSegs := splitSegments(pattern)
	relSegs := splitSegments(rel)
	return matchSegments(patternSegs, relSegs)
}

func containsDoubleStar(pattern string) bool {
	for i := 0; i+1 < len(pattern); i++ {
		if pattern[i] == '*' && pattern[i+1] == '*' {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

func matchSegments(pattern, path []string) (bool, error) {
	if len(pattern) == 0 {
		return len(path) == 0, nil
	}
	if pattern[0] == "**" {
		if matched, err := matchSegments(pattern[1:], path); err != nil || matched {
			return matched, err
		}
		if len(path) == 0 {
			return false, nil
		}
		return matchSegments(pattern, path[1:])
	}
	if len(path) == 0 {
		return false, nil
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false, err
	}
	return matchSegments(pattern[1:], path[1:])
}
