package main

import (
	"context"
	"fmt"
	"os"

	"github.com/forgecode/forge/config"
)

// ValidateCmd checks a config file for schema errors, unknown fields, and
// ConfigInterface validation failures, without starting anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI, ctx context.Context) error {
	path := cli.Config
	if path == "" {
		path = "forge.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	issues := config.StrictValidate(string(data))
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, "forge: unknown field:", issue)
	}

	cfg, err := config.LoadConfigFromString(string(data))
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", path, err)
	}

	fmt.Printf("%s is valid: %d agent type(s), %d hook(s)\n", path, len(cfg.Agents), len(cfg.Hooks))
	if len(issues) > 0 {
		return fmt.Errorf("%d unknown field(s) found", len(issues))
	}
	return nil
}
