package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgecode/forge/agent"
	"github.com/forgecode/forge/config"
	"github.com/forgecode/forge/hook"
	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/mcpclient"
	"github.com/forgecode/forge/permission"
	"github.com/forgecode/forge/session"
	"github.com/forgecode/forge/shell"
	"github.com/forgecode/forge/tool"
	"github.com/forgecode/forge/undo"
	"github.com/forgecode/forge/workflow"
)

// Core bundles every process-singleton component the CLI's subcommands
// dispatch into, built once per invocation from the loaded Config.
type Core struct {
	Config    *config.Config
	LLM       *llm.Client
	Shells    *shell.Manager
	Tools     *tool.Registry
	Perms     *permission.Checker
	Hooks     *hook.Registry
	HookExec  *hook.Executor
	Undo      *undo.Store
	Agents    *agent.Manager
	Sessions  session.Store
	MCP       *mcpclient.Pool
	Workflows *workflow.Engine

	// NewExecContext builds a tool.ExecutionContext scoped to sessionID,
	// for callers (the interactive chat loop) that run an agent directly
	// with agent.Run rather than through the Manager's async Spawn/Wait.
	NewExecContext func(sessionID string) *tool.ExecutionContext

	cwd string
}

// buildCore wires every component from cfg, the way hector's main.go
// assembles a server's dependency graph from its loaded Config before
// dispatching to a subcommand's Run method.
func buildCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	llmClient := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		AppName:     "forge",
		MaxRetries:  cfg.LLM.MaxRetries,
		BaseDelay:   cfg.LLM.BaseDelay,
		MaxDelay:    cfg.LLM.MaxDelay,
	})

	shells := shell.NewManager()
	tools := registerTools(cfg.Tools, shells)

	globalRules, err := permission.LoadRuleSet(expandHome(cfg.Permissions.GlobalRulesPath), permission.Level(defaultLevel(cfg.Permissions.DefaultLevel)))
	if err != nil {
		return nil, fmt.Errorf("load global permission rules: %w", err)
	}
	var projectRules *permission.RuleSet
	if cfg.Permissions.ProjectRulesPath != "" {
		projectRules, err = permission.LoadRuleSet(expandHome(cfg.Permissions.ProjectRulesPath), permission.Ask)
		if err != nil {
			return nil, fmt.Errorf("load project permission rules: %w", err)
		}
	}
	perms := permission.NewChecker(globalRules, projectRules, cfg.Permissions.RateLimiting)

	hookRegistry := hook.NewRegistry()
	for _, hc := range cfg.Hooks {
		hookRegistry.Register(hook.Hook{
			EventPattern: hc.EventPattern,
			Command:      hc.Command,
			Env:          hc.Env,
			WorkingDir:   hc.WorkingDir,
			Timeout:      hc.Timeout,
		})
	}
	hookExec := hook.NewExecutor(hookRegistry, cwd)

	undoStore := undo.NewStore(cfg.Undo.MaxHistory, cfg.Undo.MaxSnapshotBytes)

	newExecC := func(sessionID string) *tool.ExecutionContext {
		return &tool.ExecutionContext{
			Cwd:        cwd,
			SessionID:  sessionID,
			Permission: tool.NewPermissionAdapter(perms),
			Hooks:      tool.NewHookAdapter(hookExec),
			Undo:       undoStore,
		}
	}

	agentManager := agent.NewManager(llmClient, tools, cfg.Performance.MaxConcurrency, newExecC)
	for name, tc := range cfg.Agents {
		agentManager.RegisterType(agent.TypeConfig{
			Name:          name,
			SystemPrompt:  tc.SystemPrompt,
			MaxIterations: tc.MaxIterations,
			MaxTokens:     tc.MaxTokens,
		})
	}

	sessions, err := buildSessionStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("build session store: %w", err)
	}

	pool, err := connectMCP(ctx, cfg.MCP, tools)
	if err != nil {
		return nil, fmt.Errorf("connect mcp servers: %w", err)
	}

	workflowEngine, err := workflow.NewEngine(agentManager, undoStore, expandHome(cfg.Workflow.CheckpointDir))
	if err != nil {
		return nil, fmt.Errorf("build workflow engine: %w", err)
	}

	return &Core{
		Config:         cfg,
		LLM:            llmClient,
		Shells:         shells,
		Tools:          tools,
		Perms:          perms,
		Hooks:          hookRegistry,
		HookExec:       hookExec,
		Undo:           undoStore,
		Agents:         agentManager,
		Sessions:       sessions,
		MCP:            pool,
		Workflows:      workflowEngine,
		NewExecContext: newExecC,
		cwd:            cwd,
	}, nil
}

func defaultLevel(s string) string {
	if s == "" {
		return "ask"
	}
	return s
}

// registerTools builds the built-in tool catalog, honoring the
// enabled/disabled allow-list (mutually exclusive per ToolsConfig.Validate).
func registerTools(cfg config.ToolsConfig, shells *shell.Manager) *tool.Registry {
	all := []tool.Tool{
		tool.NewReadTool(),
		tool.NewWriteTool(cfg.AllowedRoot),
		tool.NewEditTool(),
		tool.NewGlobTool(),
		tool.NewGrepTool(),
		tool.NewBashTool(shells),
		tool.NewBashOutputTool(shells),
		tool.NewKillShellTool(shells),
		tool.NewWebFetchTool(),
	}

	wanted := toolFilter(cfg)
	registry := tool.NewRegistry()
	for _, t := range all {
		if !wanted(t.Info().Name) {
			continue
		}
		if err := registry.Register(t); err != nil {
			panic(err) // built-in names never collide; a collision is a programming error
		}
	}
	return registry
}

func toolFilter(cfg config.ToolsConfig) func(name string) bool {
	switch {
	case len(cfg.Enabled) > 0:
		set := toSet(cfg.Enabled)
		return func(name string) bool { return set[name] }
	case len(cfg.Disabled) > 0:
		set := toSet(cfg.Disabled)
		return func(name string) bool { return !set[name] }
	default:
		return func(string) bool { return true }
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func buildSessionStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return session.NewSQLStore(expandHome(cfg.SQLitePath))
	default:
		return session.NewFileStore(expandHome(cfg.DataDir))
	}
}

func connectMCP(ctx context.Context, cfg config.MCPConfig, tools *tool.Registry) (*mcpclient.Pool, error) {
	mcpConf, err := mcpclient.Load(expandHome(cfg.ConfigPath))
	if err != nil {
		return nil, err
	}
	pool := mcpclient.NewPool(tools, mcpConf.Settings)
	if !cfg.Enabled {
		return pool, nil
	}

	for name, sc := range mcpConf.Servers {
		if !sc.Enabled || !sc.AutoConnect {
			continue
		}
		if err := pool.Connect(ctx, name, sc); err != nil {
			fmt.Fprintf(os.Stderr, "forge: mcp server %q failed to connect: %v\n", name, err)
		}
	}
	return pool, nil
}

// expandHome resolves a leading "~" in path to the user's home directory,
// the way config defaults like "~/.forge/sessions" are written.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
