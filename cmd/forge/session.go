package main

import (
	"context"
	"fmt"
	"sort"
)

// SessionCmd groups the session store's upward-interface operations.
type SessionCmd struct {
	List   SessionListCmd   `cmd:"" help:"List saved sessions."`
	Delete SessionDeleteCmd `cmd:"" help:"Delete a saved session."`
}

type SessionListCmd struct{}

func (c *SessionListCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	metas, err := core.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Updated.After(metas[j].Updated) })

	if len(metas) == 0 {
		fmt.Println("no saved sessions")
		return nil
	}
	for _, m := range metas {
		fmt.Printf("%s  %-24s  %d message(s)  updated %s\n", m.ID, m.Title, m.MsgCount, m.Updated.Format("2006-01-02 15:04:05"))
	}
	return nil
}

type SessionDeleteCmd struct {
	ID string `arg:"" help:"Session id to delete."`
}

func (c *SessionDeleteCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}
	if err := core.Sessions.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete session %s: %w", c.ID, err)
	}
	fmt.Printf("deleted session %s\n", c.ID)
	return nil
}
