package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	webFetchMaxBodySize = 5 * 1024 * 1024
	webFetchTimeout     = 30 * time.Second
)

// WebFetchArgs is the WebFetch tool's argument struct.
type WebFetchArgs struct {
	URL string `json:"url" jsonschema:"required,description=HTTP(S) URL to fetch"`
}

// WebFetchTool retrieves a URL over HTTP(S) and returns a text-stripped
// view of its body, bounded by size and a fixed timeout.
type WebFetchTool struct {
	Client *http.Client
}

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{Client: &http.Client{Timeout: webFetchTimeout}}
}

func (t *WebFetchTool) Info() Info {
	return Info{
		Name:        "WebFetch",
		Description: "Fetch a URL over HTTP(S) and return its text content.",
		Category:    CategoryNetwork,
		ArgsExample: WebFetchArgs{},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, ec *ExecutionContext, args map[string]any) (Result, error) {
	var a WebFetchArgs
	if err := decodeArgs(args, &a); err != nil {
		return Fail(err.Error()), nil
	}
	if a.URL == "" {
		return Fail(`missing required argument "url"`), nil
	}
	if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
		return Fail(fmt.Sprintf("url must be http:// or https://: %s", a.URL)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return Fail(fmt.Sprintf("build request: %v", err)), nil
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return Fail(fmt.Sprintf("fetch %s: %v", a.URL, err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webFetchMaxBodySize))
	if err != nil {
		return Fail(fmt.Sprintf("read response from %s: %v", a.URL, err)), nil
	}

	contentType := resp.Header.Get("Content-Type")
	text := string(body)
	if strings.Contains(contentType, "html") {
		text = stripHTML(text)
	}

	result := Ok(map[string]any{"content": text, "status_code": resp.StatusCode})
	result.Metadata = map[string]any{"content_type": contentType, "bytes": len(body)}
	if resp.StatusCode >= 400 {
		result.Success = false
		result.Error = fmt.Sprintf("%s responded with status %d", a.URL, resp.StatusCode)
	}
	return result, nil
}

var (
	htmlScriptStyle = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTag         = regexp.MustCompile(`(?s)<[^>]+>`)
	htmlWhitespace  = regexp.MustCompile(`\n{3,}`)
)

// stripHTML reduces an HTML document to its readable text, dropping
// script/style blocks and markup tags. Not a full HTML parser — adequate
// for turning a page into LLM-digestible text, not for structure-preserving
// extraction.
func stripHTML(html string) string {
	html = htmlScriptStyle.ReplaceAllString(html, "")
	html = htmlTag.ReplaceAllString(html, "\n")
	html = htmlWhitespace.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}
