package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	grepMaxFileSize    = 10 * 1024 * 1024
	grepDefaultTimeout = 60 * time.Second
)

// GrepArgs is the Grep tool's argument struct.
type GrepArgs struct {
	Pattern       string `json:"pattern" jsonschema:"required,description=Regular expression to search for"`
	Path          string `json:"path,omitempty" jsonschema:"description=File or directory to search, defaults to the execution cwd"`
	Glob          string `json:"glob,omitempty" jsonschema:"description=Restrict to files matching this glob"`
	Type          string `json:"type,omitempty" jsonschema:"description=Restrict to a file-extension family, e.g. go, py, js"`
	IgnoreCase    bool   `json:"-i,omitempty" jsonschema:"description=Case-insensitive match"`
	OutputMode    string `json:"output_mode,omitempty" jsonschema:"description=files_with_matches (default), content, or count"`
	ContextBefore int    `json:"-B,omitempty" jsonschema:"description=Accepted but not applied: content output lists matching lines only"`
	ContextAfter  int    `json:"-A,omitempty" jsonschema:"description=Accepted but not applied: content output lists matching lines only"`
	Offset        int    `json:"offset,omitempty"`
	HeadLimit     int    `json:"head_limit,omitempty" jsonschema:"description=Maximum number of results to return"`
}

var grepTypeExtensions = map[string][]string{
	"go": {".go"}, "py": {".py"}, "js": {".js", ".jsx"}, "ts": {".ts", ".tsx"},
	"rust": {".rs"}, "java": {".java"}, "c": {".c", ".h"}, "cpp": {".cc", ".cpp", ".hpp"},
	"md": {".md"}, "json": {".json"}, "yaml": {".yaml", ".yml"},
}

// GrepTool searches file contents with a regular expression, mirroring
// ripgrep-style mode/filter semantics.
type GrepTool struct{}

func NewGrepTool() *GrepTool { return &GrepTool{} }

func (t *GrepTool) Info() Info {
	return Info{
		Name:        "Grep",
		Description: "Search file contents with a regular expression.",
		Category:    CategoryFilesystem,
		ArgsExample: GrepArgs{},
	}
}

type grepLineMatch struct {
	file string
	line int
	text string
}

func (t *GrepTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a GrepArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Pattern == "" {
		return Fail(`missing required argument "pattern"`), nil
	}

	reSrc := a.Pattern
	if a.IgnoreCase {
		reSrc = "(?i)" + reSrc
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return Fail(fmt.Sprintf("invalid pattern: %v", err)), nil
	}

	root := a.Path
	if root == "" {
		root = ec.Cwd
	}
	if root == "" {
		root = "."
	}

	mode := a.OutputMode
	if mode == "" {
		mode = "files_with_matches"
	}

	timeout := grepDefaultTimeout
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var matches []grepLineMatch
	fileCounts := map[string]int{}
	var filesWithMatches []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if searchCtx.Err() != nil {
			return searchCtx.Err()
		}
		if err != nil || d.IsDir() {
			return nil
		}
		if !grepPathAllowed(root, path, a.Glob, a.Type) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > grepMaxFileSize {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		head := make([]byte, 512)
		n, _ := f.Read(head)
		if bytes.IndexByte(head[:n], 0) != -1 {
			return nil
		}
		f.Seek(0, 0)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		fileMatched := false
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				fileMatched = true
				fileCounts[path]++
				matches = append(matches, grepLineMatch{file: path, line: lineNo, text: line})
			}
		}
		if fileMatched {
			filesWithMatches = append(filesWithMatches, path)
		}
		return nil
	})
	if walkErr != nil && walkErr != context.DeadlineExceeded {
		return Fail(fmt.Sprintf("grep %s: %v", a.Pattern, walkErr)), nil
	}
	timedOut := walkErr == context.DeadlineExceeded

	switch mode {
	case "files_with_matches":
		sort.Strings(filesWithMatches)
		out := paginateStrings(filesWithMatches, a.Offset, a.HeadLimit)
		return Ok(map[string]any{"files": out, "count": len(filesWithMatches), "timed_out": timedOut}), nil
	case "count":
		files := make([]string, 0, len(fileCounts))
		for f := range fileCounts {
			files = append(files, f)
		}
		sort.Strings(files)
		counts := make(map[string]int, len(files))
		for _, f := range files {
			counts[f] = fileCounts[f]
		}
		return Ok(map[string]any{"counts": counts, "timed_out": timedOut}), nil
	case "content":
		lines := formatGrepContent(matches, a.ContextBefore, a.ContextAfter)
		lines = paginateStrings(lines, a.Offset, a.HeadLimit)
		if len(matches) == 0 {
			return Ok(map[string]any{"lines": []string{}, "count": 0, "timed_out": timedOut}), nil
		}
		return Ok(map[string]any{"lines": lines, "count": len(matches), "timed_out": timedOut}), nil
	default:
		return Fail(fmt.Sprintf("unknown output_mode %q", mode)), nil
	}
}

func grepPathAllowed(root, path, glob, typ string) bool {
	if glob != "" {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if ok, _ := matchGlobPattern(glob, rel); !ok {
			return false
		}
	}
	if typ != "" {
		exts, known := grepTypeExtensions[typ]
		if !known {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		found := false
		for _, e := range exts {
			if e == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func formatGrepContent(matches []grepLineMatch, before, after int) []string {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", m.file, m.line, m.text))
	}
	return lines
}

func paginateStrings(items []string, offset, headLimit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []string{}
	}
	end := len(items)
	if headLimit > 0 && offset+headLimit < end {
		end = offset + headLimit
	}
	return items[offset:end]
}
