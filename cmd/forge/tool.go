package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ToolCmd invokes a registered tool directly through the same dispatch
// pipeline (permission check, hooks, undo capture) an agent's tool calls
// go through, without an LLM driving it — useful for scripting and for
// exercising a tool's permission/hook wiring in isolation.
type ToolCmd struct {
	List ToolListCmd   `cmd:"" help:"List registered tools and their schemas."`
	Run  ToolInvokeCmd `cmd:"" help:"Invoke a tool with JSON-encoded arguments."`
}

type ToolListCmd struct{}

func (c *ToolListCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	for _, info := range core.Tools.List() {
		fmt.Printf("%s (%s)\n  %s\n", info.Name, info.Category, info.Description)
	}
	return nil
}

type ToolInvokeCmd struct {
	Name    string `arg:"" help:"Tool name, as shown by 'forge tool list'."`
	Args    string `help:"Tool arguments as a JSON object." default:"{}"`
	DryRun  bool   `help:"Run through permission/hook checks without executing the tool body."`
	Session string `help:"Session id to scope permission/undo state to." default:"cli"`
}

func (c *ToolInvokeCmd) Run(cli *CLI, ctx context.Context) error {
	var args map[string]any
	if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
		return fmt.Errorf("parse --args as JSON: %w", err)
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	sessionID := c.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ec := core.NewExecContext(sessionID)
	ec.DryRun = c.DryRun

	result, err := core.Tools.Execute(ctx, ec, c.Name, args)
	if err != nil {
		return fmt.Errorf("execute %s: %w", c.Name, err)
	}

	encoded, encErr := json.MarshalIndent(result, "", "  ")
	if encErr != nil {
		return fmt.Errorf("encode result: %w", encErr)
	}
	fmt.Println(string(encoded))
	if !result.Success {
		return classifyToolError(c.Name, result.Error)
	}
	return nil
}
