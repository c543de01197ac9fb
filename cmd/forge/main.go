// Command forge is the CLI for the forge agentic coding assistant core.
//
// Usage:
//
//	forge chat
//	forge --config forge.yaml chat coder
//	forge validate --config forge.yaml
//	forge workflow run deploy.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/forgecode/forge/config"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Config    string `short:"c" help:"Path to config file." type:"path" env:"FORGE_CONFIG"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." env:"FORGE_LOG_LEVEL"`
	LogFile   string `help:"Log file path (empty = stderr)." env:"FORGE_LOG_FILE"`
	LogFormat string `help:"Log format (simple or json)." env:"FORGE_LOG_FORMAT"`

	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Chat     ChatCmd     `cmd:"" help:"Start an interactive chat session with an agent."`
	Validate ValidateCmd `cmd:"" help:"Validate a config file."`
	Workflow WorkflowCmd `cmd:"" help:"Workflow operations (list, run, resume, cancel)."`
	Session  SessionCmd  `cmd:"" help:"Session operations (list, delete)."`
	Tool     ToolCmd     `cmd:"" help:"Invoke a built-in tool directly, outside an agent loop."`
}

// loadConfig reads cli.Config, falling back to zero-config defaults when
// no path was given and no forge.yaml exists in the working directory.
func (cli *CLI) loadConfig() (*config.Config, error) {
	path := cli.Config
	if path == "" {
		path = "forge.yaml"
	}
	return config.LoadConfig(path)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("forge"),
		kong.Description("Agentic coding assistant core."),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "forge:", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err = kctx.Run(&cli, ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "forge:", err)
		os.Exit(exitCodeFor(err))
	}
}
