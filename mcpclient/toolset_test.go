package mcpclient

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestParseCallResult_SingleTextContentIsResult(t *testing.T) {
	resp := &mcp.CallToolResult{Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "42"}}}
	result := parseCallResult(resp, "calc")
	assert.True(t, result.Success)
	out := result.Output.(map[string]any)
	assert.Equal(t, "42", out["result"])
}

func TestParseCallResult_MultipleTextContentIsResults(t *testing.T) {
	resp := &mcp.CallToolResult{Content: []mcp.Content{
		mcp.TextContent{Type: "text", Text: "a"},
		mcp.TextContent{Type: "text", Text: "b"},
	}}
	result := parseCallResult(resp, "search")
	assert.True(t, result.Success)
	out := result.Output.(map[string]any)
	assert.Equal(t, []string{"a", "b"}, out["results"])
}

func TestParseCallResult_IsErrorFails(t *testing.T) {
	resp := &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "division by zero"}},
	}
	result := parseCallResult(resp, "calc")
	assert.False(t, result.Success)
	assert.Equal(t, "division by zero", result.Error)
}

func TestToolset_Qualify(t *testing.T) {
	ts := NewToolset("search", nil, "mcp_search")
	assert.Equal(t, "mcp_search:web_search", ts.qualify("web_search"))

	unprefixed := NewToolset("search", nil, "")
	assert.Equal(t, "web_search", unprefixed.qualify("web_search"))
}

func TestConvertSchema_MarshalsInputSchema(t *testing.T) {
	schema := mcp.ToolInputSchema{Type: "object", Properties: map[string]any{
		"query": map[string]any{"type": "string"},
	}}
	out := convertSchema(schema)
	assert.Equal(t, "object", out["type"])
}
