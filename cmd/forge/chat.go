package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/forgecode/forge/agent"
	"github.com/forgecode/forge/config"
	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/session"
)

// ChatCmd starts an interactive, single-agent chat session against stdin/
// stdout — the minimal direct-mode loop this core's upward interface needs
// to exercise end to end; the rich TUI/diff renderer is out of scope and
// consumes the same agent.Run/tool.Registry surface from outside this repo.
type ChatCmd struct {
	AgentType string `arg:"" optional:"" default:"general" help:"Agent type to chat with."`
	Session   string `help:"Resume an existing session by id instead of starting a new one."`
	Watch     bool   `help:"Reload the agent's config from disk between turns if the file changes."`
}

func (c *ChatCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	typeCfg, ok := cfg.GetAgent(c.AgentType)
	if !ok {
		return fmt.Errorf("unknown agent type %q (available: %s)", c.AgentType, strings.Join(cfg.ListAgents(), ", "))
	}

	core, err := buildCore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	var liveCfg atomic.Pointer[config.Config]
	liveCfg.Store(cfg)
	if c.Watch && cli.Config != "" {
		if err := config.Watch(ctx, cli.Config, func(reloaded *config.Config) {
			liveCfg.Store(reloaded)
			fmt.Fprintln(os.Stderr, "\nforge: config reloaded")
		}); err != nil {
			return fmt.Errorf("watch config %s: %w", cli.Config, err)
		}
	}

	sess, err := resolveSession(ctx, core.Sessions, c.Session, c.AgentType)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	fmt.Printf("forge chat — agent %q, session %s\n", c.AgentType, sess.ID)
	fmt.Println("Type your message and press enter. /quit or /exit ends the session.")

	reader := bufio.NewReader(os.Stdin)
	ec := core.NewExecContext(sess.ID)

	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil // EOF (e.g. piped input exhausted) ends the session cleanly
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return nil
		}

		turnCfg := typeCfg
		if tc, ok := liveCfg.Load().GetAgent(c.AgentType); ok {
			turnCfg = tc
		}

		history := stripSystemMessages(sess.Messages)
		ag := agent.New(uuid.NewString(), c.AgentType, agent.TypeConfig{
			Name:          turnCfg.Name,
			SystemPrompt:  turnCfg.SystemPrompt,
			MaxIterations: turnCfg.MaxIterations,
			MaxTokens:     turnCfg.MaxTokens,
		}, agent.TaskContext{
			ActiveFile:       sess.Tracker.ActiveFile,
			RecentOperations: sess.Tracker.Operations,
		}, input, history)

		result, err := agent.Run(ctx, ag, core.LLM, core.Tools, ec, func(text string) {
			fmt.Print(text)
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintln(os.Stderr, "forge: agent run failed:", err)
			continue
		}
		if !result.Success {
			fmt.Fprintln(os.Stderr, "forge:", result.Message)
		}

		sess.Messages = stripSystemMessages(ag.History())
		sess.Tracker.TurnCount = len(sess.Messages)
		if err := core.Sessions.Save(ctx, sess); err != nil {
			fmt.Fprintln(os.Stderr, "forge: failed to save session:", err)
		}
	}
}

func resolveSession(ctx context.Context, store session.Store, id, title string) (*session.Session, error) {
	if id != "" {
		return store.Resume(ctx, id)
	}
	return store.Create(ctx, title)
}

// stripSystemMessages removes any system-role entries from a message
// list before it's fed back as agent.New's history — buildPrompt prepends
// a fresh system message each turn, so carrying an old one forward would
// duplicate it.
func stripSystemMessages(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			continue
		}
		out = append(out, m)
	}
	return out
}
