// Package mcpclient implements the MCP Client runtime (C6): JSON-RPC 2.0
// connections to external tool servers over stdio or HTTP, built on
// mark3labs/mcp-go rather than a hand-rolled wire loop.
package mcpclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const protocolVersion = "2024-11-05"

const defaultRequestTimeout = 30 * time.Second

// Client is one connection to an MCP server: the transport, the recorded
// server info/capabilities from the initialize handshake, and the
// connected/disconnected state machine described in spec §4.6.
type Client struct {
	Name   string
	Config ServerConfig

	mu           sync.RWMutex
	underlying   *mcpgo.Client
	connected    bool
	serverInfo   mcp.Implementation
	capabilities mcp.ServerCapabilities
	requestTTL   time.Duration
	onDisconnect func(cause error)
}

// New builds a Client for cfg without connecting. Call Connect to perform
// the handshake.
func New(name string, cfg ServerConfig, requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Client{Name: name, Config: cfg, requestTTL: requestTimeout}
}

// OnDisconnect registers a callback invoked once with the triggering cause
// when the client transitions to disconnected (spec §4.6 step 4).
func (c *Client) OnDisconnect(fn func(cause error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// Connected reports whether the last known handshake/transport state is
// live. For HTTP transports this is "virtual" per spec — each request is
// its own POST, so Connected just reflects whether initialize succeeded.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Connect opens the transport, sends initialize, and sends
// notifications/initialized, per spec §4.6 step 1.
func (c *Client) Connect(ctx context.Context) error {
	underlying, err := buildTransport(c.Name, c.Config)
	if err != nil {
		return &Error{Server: c.Name, Kind: KindTransport, Method: "connect", Err: err}
	}

	if c.Config.Transport != "stdio" {
		if err := underlying.Start(ctx); err != nil {
			_ = underlying.Close()
			return &Error{Server: c.Name, Kind: KindTransport, Method: "start", Err: err}
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, c.requestTTL)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = protocolVersion
	initReq.Params.ClientInfo = mcp.Implementation{Name: "forge", Version: "1.0.0"}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	initResult, err := underlying.Initialize(initCtx, initReq)
	if err != nil {
		_ = underlying.Close()
		return classifyErr(c.Name, "initialize", err)
	}

	c.mu.Lock()
	c.underlying = underlying
	c.serverInfo = initResult.ServerInfo
	c.capabilities = initResult.Capabilities
	c.connected = true
	c.mu.Unlock()

	return nil
}

// Disconnect cancels the connection, per spec §4.6 step 4. Any in-flight
// requests fail on their own timeout/transport-closed error; mcp-go does
// not expose a separate waiter-cancellation hook, so the cause is only
// surfaced through the registered onDisconnect callback here.
func (c *Client) Disconnect(cause error) error {
	c.mu.Lock()
	underlying := c.underlying
	onDisconnect := c.onDisconnect
	c.underlying = nil
	c.connected = false
	c.mu.Unlock()

	var closeErr error
	if underlying != nil {
		closeErr = underlying.Close()
	}
	if onDisconnect != nil {
		onDisconnect(cause)
	}
	return closeErr
}

func (c *Client) client() (*mcpgo.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.underlying == nil {
		return nil, &Error{Server: c.Name, Kind: KindDisconnected, Err: fmt.Errorf("not connected")}
	}
	return c.underlying, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.requestTTL)
}

func classifyErr(server, method string, err error) error {
	if err == nil {
		return nil
	}
	if err == context.DeadlineExceeded {
		return &Error{Server: server, Kind: KindTimeout, Method: method, Err: err}
	}
	return &Error{Server: server, Kind: KindProtocol, Method: method, Err: err}
}

// ListTools returns the server's tools, or an empty slice without hitting
// the server if the server never advertised the tools capability.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	c.mu.RLock()
	hasCap := c.capabilities.Tools != nil
	c.mu.RUnlock()
	if !hasCap {
		return nil, nil
	}

	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := cl.ListTools(rctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, classifyErr(c.Name, "tools/list", err)
	}
	return resp.Tools, nil
}

// CallTool invokes a tool by name with its arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := cl.CallTool(rctx, req)
	if err != nil {
		return nil, classifyErr(c.Name, "tools/call", err)
	}
	return resp, nil
}

// ListResources gates on the resources capability.
func (c *Client) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	c.mu.RLock()
	hasCap := c.capabilities.Resources != nil
	c.mu.RUnlock()
	if !hasCap {
		return nil, nil
	}

	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := cl.ListResources(rctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, classifyErr(c.Name, "resources/list", err)
	}
	return resp.Resources, nil
}

// ListResourceTemplates gates on the resources capability.
func (c *Client) ListResourceTemplates(ctx context.Context) ([]mcp.ResourceTemplate, error) {
	c.mu.RLock()
	hasCap := c.capabilities.Resources != nil
	c.mu.RUnlock()
	if !hasCap {
		return nil, nil
	}

	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := cl.ListResourceTemplates(rctx, mcp.ListResourceTemplatesRequest{})
	if err != nil {
		return nil, classifyErr(c.Name, "resources/templates/list", err)
	}
	return resp.ResourceTemplates, nil
}

// ReadResource reads a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	resp, err := cl.ReadResource(rctx, req)
	if err != nil {
		return nil, classifyErr(c.Name, "resources/read", err)
	}
	return resp.Contents, nil
}

// ListPrompts gates on the prompts capability.
func (c *Client) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	c.mu.RLock()
	hasCap := c.capabilities.Prompts != nil
	c.mu.RUnlock()
	if !hasCap {
		return nil, nil
	}

	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := cl.ListPrompts(rctx, mcp.ListPromptsRequest{})
	if err != nil {
		return nil, classifyErr(c.Name, "prompts/list", err)
	}
	return resp.Prompts, nil
}

// GetPrompt renders a prompt template by name.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	cl, err := c.client()
	if err != nil {
		return nil, err
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := cl.GetPrompt(rctx, req)
	if err != nil {
		return nil, classifyErr(c.Name, "prompts/get", err)
	}
	return resp, nil
}

// buildTransport constructs the mcp-go client appropriate for cfg.Transport.
func buildTransport(name string, cfg ServerConfig) (*mcpgo.Client, error) {
	switch cfg.Transport {
	case "stdio":
		envSlice := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			envSlice = append(envSlice, k+"="+v)
		}
		cl, err := mcpgo.NewStdioMCPClient(cfg.Command, envSlice, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("stdio client %s: %w", name, err)
		}
		return cl, nil

	case "http", "streamable-http":
		headers, err := resolveHeaders(cfg)
		if err != nil {
			return nil, fmt.Errorf("http client %s: %w", name, err)
		}
		var opts []transport.StreamableHTTPCOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		cl, err := mcpgo.NewStreamableHttpClient(cfg.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("http client %s: %w", name, err)
		}
		return cl, nil

	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}
