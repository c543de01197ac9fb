package tool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultReadLimit = 100
	maxLineLength    = 2000
)

// ReadArgs is the Read tool's argument struct; its JSON Schema is derived
// from this type by the registry instead of a hand-written parameter list.
type ReadArgs struct {
	Path   string `json:"path" jsonschema:"required,description=Absolute path to the file to read"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=1-based line offset to start reading from"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to return"`
}

// ReadTool reads file contents, truncating long lines and paginating by
// line offset/limit.
type ReadTool struct{}

func NewReadTool() *ReadTool { return &ReadTool{} }

func (t *ReadTool) Info() Info {
	return Info{
		Name:        "Read",
		Description: "Read a file from the filesystem, optionally from a line offset with a line limit.",
		Category:    CategoryFilesystem,
		ArgsExample: ReadArgs{},
	}
}

var imageMIMEByExt = map[string]string{
	".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg",
	".gif": "image/gif", ".webp": "image/webp", ".bmp": "image/bmp",
}

func (t *ReadTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a ReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.Path == "" {
		return Fail(`missing required argument "path"`), nil
	}
	if !filepath.IsAbs(a.Path) {
		return Fail(fmt.Sprintf("path must be absolute: %s", a.Path)), nil
	}

	ext := strings.ToLower(filepath.Ext(a.Path))
	if mimeType, isImage := imageMIMEByExt[ext]; isImage {
		return t.readImage(a.Path, mimeType)
	}

	content, err := os.ReadFile(a.Path)
	if err != nil {
		return Fail(fmt.Sprintf("read %s: %v", a.Path, err)), nil
	}
	if looksBinaryContent(content) {
		return Fail(fmt.Sprintf("%s appears to be a binary file and cannot be read as text", a.Path)), nil
	}

	if ext == ".ipynb" {
		return t.readNotebook(a.Path, content)
	}

	offset := a.Offset
	if offset < 1 {
		offset = 1
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultReadLimit
	}

	lines, totalLines := selectLines(content, offset, limit)
	return Ok(map[string]any{
		"content":     strings.Join(lines, "\n"),
		"total_lines": totalLines,
		"offset":      offset,
		"returned":    len(lines),
	}), nil
}

func (t *ReadTool) readImage(path, mimeType string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fail(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	return Ok(map[string]any{
		"mime_type": mimeType,
		"base64":    base64.StdEncoding.EncodeToString(data),
	}), nil
}

// readNotebook flattens a Jupyter notebook into a cell-annotated text view.
func (t *ReadTool) readNotebook(path string, content []byte) (Result, error) {
	var nb struct {
		Cells []struct {
			CellType string   `json:"cell_type"`
			Source   []string `json:"source"`
		} `json:"cells"`
	}
	if err := json.Unmarshal(content, &nb); err != nil {
		return Fail(fmt.Sprintf("parse notebook %s: %v", path, err)), nil
	}

	var sb strings.Builder
	for i, cell := range nb.Cells {
		fmt.Fprintf(&sb, "### Cell %d [%s]\n", i, cell.CellType)
		sb.WriteString(strings.Join(cell.Source, ""))
		sb.WriteString("\n\n")
	}
	return Ok(map[string]any{"content": sb.String(), "cell_count": len(nb.Cells)}), nil
}

func looksBinaryContent(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(content[:n], 0) != -1
}

// selectLines returns the [offset, offset+limit) window of content's lines
// (1-based offset), truncating each line to maxLineLength characters.
func selectLines(content []byte, offset, limit int) ([]string, int) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var all []string
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "... [truncated]"
		}
		all = append(all, line)
	}

	total := len(all)
	start := offset - 1
	if start >= total {
		return nil, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total
}
