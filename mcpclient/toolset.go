package mcpclient

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forgecode/forge/tool"
)

// Toolset adapts one connected Client's remote tools into the Tool Runtime,
// the way mcptoolset.Toolset wraps an MCP connection as a
// tool.Toolset — here targeting this repo's tool.Registry directly instead
// of a lazy per-call Tools() accessor, since the runtime holds one
// process-singleton Registry (spec §4 "process-singletons").
type Toolset struct {
	ServerName string
	client     *Client
	prefix     string
}

// NewToolset wraps client for registration under the Registry. prefix, if
// non-empty, is prepended as "prefix:toolname" to avoid name collisions
// between servers that expose tools with the same name.
func NewToolset(serverName string, client *Client, prefix string) *Toolset {
	return &Toolset{ServerName: serverName, client: client, prefix: prefix}
}

func (ts *Toolset) qualify(name string) string {
	if ts.prefix == "" {
		return name
	}
	return ts.prefix + ":" + name
}

// Discover lists the server's tools and registers each as a tool.Tool.
// Returns the registered names, so the caller can Unregister them later
// (e.g. on disconnect).
func (ts *Toolset) Discover(ctx context.Context, registry *tool.Registry) ([]string, error) {
	tools, err := ts.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	registered := make([]string, 0, len(tools))
	for _, mcpTool := range tools {
		wrapper := &mcpToolWrapper{
			toolset: ts,
			name:    mcpTool.Name,
			desc:    mcpTool.Description,
			schema:  convertSchema(mcpTool.InputSchema),
		}
		qualified := ts.qualify(mcpTool.Name)
		wrapper.registeredName = qualified
		if err := registry.Register(wrapper); err != nil {
			// Name collision with a previously registered tool: skip rather
			// than fail the whole discovery pass.
			continue
		}
		registered = append(registered, qualified)
	}
	return registered, nil
}

func convertSchema(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}

// mcpToolWrapper presents one remote MCP tool as a tool.Tool.
type mcpToolWrapper struct {
	toolset        *Toolset
	name           string
	desc           string
	schema         map[string]any
	registeredName string
}

func (w *mcpToolWrapper) Info() tool.Info {
	return tool.Info{
		Name:        w.registeredName,
		Description: w.desc,
		Category:    tool.CategoryMCP,
	}
}

func (w *mcpToolWrapper) ArgsSchema() map[string]any {
	return w.schema
}

func (w *mcpToolWrapper) Execute(ctx context.Context, ec *tool.ExecutionContext, args map[string]any) (tool.Result, error) {
	resp, err := w.toolset.client.CallTool(ctx, w.name, args)
	if err != nil {
		return tool.Fail(err.Error()), nil
	}
	return parseCallResult(resp, w.toolset.ServerName), nil
}

// parseCallResult converts an MCP tool call's content blocks into a
// Result, collecting any mcp.TextContent entries. Non-text content (image,
// resource blocks) isn't represented yet — no tool in this registry's
// catalog currently needs it.
func parseCallResult(resp *mcp.CallToolResult, serverName string) tool.Result {
	var texts []string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	if resp.IsError {
		msg := "mcp tool error"
		if len(texts) > 0 {
			msg = texts[0]
		}
		return tool.Fail(msg)
	}

	switch len(texts) {
	case 0:
		return tool.Ok(map[string]any{"server": serverName})
	case 1:
		return tool.Ok(map[string]any{"result": texts[0]})
	default:
		return tool.Ok(map[string]any{"results": texts})
	}
}
