package mcpclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forgecode/forge/tool"
)

// Status reports one server's connection state, mirroring what the
// upward CLI/UI interface needs to list/query MCP servers (spec §5).
type Status struct {
	Name      string
	Transport string
	Connected bool
	ToolCount int
	LastError string
}

type serverEntry struct {
	client    *Client
	toolset   *Toolset
	toolNames []string

	mu             sync.Mutex
	reconnAttempts int
	lastErr        string
}

// Pool is the process-singleton registry of named MCP server connections
// (spec §4's note that "the Shell Manager and MCP client pool are
// process-singletons"). It owns connecting, discovering tools into a
// shared tool.Registry, and reconnecting with backoff on failure.
type Pool struct {
	mu       sync.RWMutex
	servers  map[string]*serverEntry
	registry *tool.Registry
	settings Settings
}

// NewPool builds an empty pool that registers discovered tools into
// registry.
func NewPool(registry *tool.Registry, settings Settings) *Pool {
	return &Pool{servers: make(map[string]*serverEntry), registry: registry, settings: settings}
}

// Connect establishes a connection to name per cfg, discovers its tools,
// and registers them. A later disconnect reported through the client's
// OnDisconnect callback schedules a reconnect with exponential backoff, up
// to the configured number of attempts, matching goclaw's backoff pattern;
// the connection is not otherwise health-checked.
func (p *Pool) Connect(ctx context.Context, name string, cfg ServerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	client := New(name, cfg, p.settings.Timeout)
	if err := client.Connect(ctx); err != nil {
		return err
	}

	toolset := NewToolset(name, client, "mcp_"+name)
	registered, err := toolset.Discover(ctx, p.registry)
	if err != nil {
		_ = client.Disconnect(err)
		return err
	}

	entry := &serverEntry{client: client, toolset: toolset, toolNames: registered}
	client.OnDisconnect(func(cause error) {
		entry.mu.Lock()
		if cause != nil {
			entry.lastErr = cause.Error()
		}
		entry.mu.Unlock()
		p.scheduleReconnect(name, cfg, entry)
	})

	p.mu.Lock()
	p.servers[name] = entry
	p.mu.Unlock()

	slog.Info("mcp server connected", "server", name, "transport", cfg.Transport, "tools", len(registered))
	return nil
}

func (p *Pool) scheduleReconnect(name string, cfg ServerConfig, entry *serverEntry) {
	entry.mu.Lock()
	attempts := p.settings.ReconnectAttempts
	if attempts <= 0 {
		attempts = 5
	}
	if entry.reconnAttempts >= attempts {
		entry.mu.Unlock()
		slog.Error("mcp server reconnect exhausted", "server", name, "attempts", attempts)
		return
	}
	entry.reconnAttempts++
	attempt := entry.reconnAttempts
	entry.mu.Unlock()

	delay := p.settings.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	backoff := delay * time.Duration(1<<(attempt-1))

	go func() {
		time.Sleep(backoff)
		for _, toolName := range entry.toolNames {
			p.registry.Unregister(toolName)
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.settings.Timeout)
		defer cancel()
		if err := p.Connect(ctx, name, cfg); err != nil {
			slog.Warn("mcp server reconnect failed", "server", name, "attempt", attempt, "error", err)
			p.scheduleReconnect(name, cfg, entry)
		} else {
			slog.Info("mcp server reconnected", "server", name, "attempt", attempt)
		}
	}()
}

// Disconnect tears down name's connection and unregisters its tools.
func (p *Pool) Disconnect(name string) error {
	p.mu.Lock()
	entry, ok := p.servers[name]
	delete(p.servers, name)
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("mcpclient: server %q not connected", name)
	}

	for _, toolName := range entry.toolNames {
		p.registry.Unregister(toolName)
	}
	entry.client.OnDisconnect(nil)
	return entry.client.Disconnect(nil)
}

// DisconnectAll tears down every connection, used at process shutdown.
func (p *Pool) DisconnectAll() {
	p.mu.RLock()
	names := make([]string, 0, len(p.servers))
	for name := range p.servers {
		names = append(names, name)
	}
	p.mu.RUnlock()

	for _, name := range names {
		if err := p.Disconnect(name); err != nil {
			slog.Warn("mcp server disconnect error", "server", name, "error", err)
		}
	}
}

// Get returns the Client for a connected server.
func (p *Pool) Get(name string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.servers[name]
	if !ok {
		return nil, false
	}
	return entry.client, true
}

// ConnectAll connects every enabled server in cfg that's marked
// auto_connect (or whose setting defaults to the pool's global
// auto_connect), continuing past individual failures so one bad server
// doesn't block the rest — mirrored on goclaw's Manager.Start.
func (p *Pool) ConnectAll(ctx context.Context, cfg *Config) error {
	var errs []string
	for name, sc := range cfg.Servers {
		if !sc.Enabled {
			continue
		}
		if !sc.AutoConnect && !p.settings.AutoConnect {
			continue
		}
		if err := p.Connect(ctx, name, sc); err != nil {
			slog.Warn("mcp server connect failed", "server", name, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("some MCP servers failed to connect: %v", errs)
	}
	return nil
}

// ListResources, ListPrompts, ReadResource, and GetPrompt give the upward
// CLI/UI interface (spec §5) a uniform way to reach a named server's
// resources/prompts without holding a *Client directly.

func (p *Pool) ListResources(ctx context.Context, server string) (any, error) {
	client, ok := p.Get(server)
	if !ok {
		return nil, fmt.Errorf("mcpclient: server %q not connected", server)
	}
	return client.ListResources(ctx)
}

func (p *Pool) ReadResource(ctx context.Context, server, uri string) (any, error) {
	client, ok := p.Get(server)
	if !ok {
		return nil, fmt.Errorf("mcpclient: server %q not connected", server)
	}
	return client.ReadResource(ctx, uri)
}

func (p *Pool) ListPrompts(ctx context.Context, server string) (any, error) {
	client, ok := p.Get(server)
	if !ok {
		return nil, fmt.Errorf("mcpclient: server %q not connected", server)
	}
	return client.ListPrompts(ctx)
}

func (p *Pool) GetPrompt(ctx context.Context, server, name string, args map[string]string) (any, error) {
	client, ok := p.Get(server)
	if !ok {
		return nil, fmt.Errorf("mcpclient: server %q not connected", server)
	}
	return client.GetPrompt(ctx, name, args)
}

// List reports the status of every tracked server.
func (p *Pool) List() []Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Status, 0, len(p.servers))
	for name, entry := range p.servers {
		entry.mu.Lock()
		out = append(out, Status{
			Name:      name,
			Transport: entry.client.Config.Transport,
			Connected: entry.client.Connected(),
			ToolCount: len(entry.toolNames),
			LastError: entry.lastErr,
		})
		entry.mu.Unlock()
	}
	return out
}
