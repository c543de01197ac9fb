package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/forgecode/forge/workflow"
)

// WorkflowCmd groups the workflow engine's upward-interface operations:
// list the definitions available in the configured workflow directory,
// run one to completion, resume a checkpointed run, or cancel one in
// flight.
type WorkflowCmd struct {
	List   WorkflowListCmd   `cmd:"" help:"List workflow definitions in the workflow directory."`
	Run    WorkflowRunCmd    `cmd:"" help:"Run a workflow definition to completion."`
	Resume WorkflowResumeCmd `cmd:"" help:"Resume a checkpointed workflow run."`
	Cancel WorkflowCancelCmd `cmd:"" help:"Cancel a running workflow at its next batch boundary."`
}

type WorkflowListCmd struct{}

func (c *WorkflowListCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dir := expandHome(cfg.Workflow.Directory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("no workflow directory at %s\n", dir)
			return nil
		}
		return fmt.Errorf("read workflow directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Printf("no workflow definitions found in %s\n", dir)
		return nil
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		def, err := workflow.ParseFile(path)
		if err != nil {
			fmt.Printf("%s  (invalid: %v)\n", name, err)
			continue
		}
		fmt.Printf("%s  %s v%s — %s (%d step(s))\n", name, def.Name, def.Version, def.Description, len(def.Steps))
	}
	return nil
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

type WorkflowRunCmd struct {
	Path string `arg:"" help:"Path to a workflow definition YAML file."`
}

func (c *WorkflowRunCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	def, err := workflow.ParseFile(c.Path)
	if err != nil {
		return fmt.Errorf("parse workflow %s: %w", c.Path, err)
	}

	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	state, err := core.Workflows.Run(ctx, def, nil)
	if err != nil {
		if state != nil {
			printWorkflowState(state)
		}
		return fmt.Errorf("run workflow %q: %w", def.Name, err)
	}
	printWorkflowState(state)
	return nil
}

type WorkflowResumeCmd struct {
	ID string `arg:"" help:"Workflow run id to resume, from its last checkpoint."`
}

func (c *WorkflowResumeCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	state, err := core.Workflows.Resume(ctx, c.ID)
	if err != nil {
		if state != nil {
			printWorkflowState(state)
		}
		return fmt.Errorf("resume workflow %s: %w", c.ID, err)
	}
	printWorkflowState(state)
	return nil
}

type WorkflowCancelCmd struct {
	ID string `arg:"" help:"Workflow run id to cancel."`
}

func (c *WorkflowCancelCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}
	core.Workflows.Cancel(c.ID)
	fmt.Printf("cancel requested for workflow %s\n", c.ID)
	return nil
}

func printWorkflowState(state *workflow.State) {
	fmt.Printf("workflow %s: %s\n", state.WorkflowID, state.Status)
	ids := make([]string, 0, len(state.Results))
	for id := range state.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := state.Results[id]
		line := fmt.Sprintf("  %s: %s", id, r.Status)
		if r.Error != "" {
			line += " — " + r.Error
		}
		fmt.Println(line)
	}
}

