// Package config provides configuration types and utilities for the agent
// framework. This file contains the unified configuration entry point.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config is the complete process configuration: one YAML document covering
// the LLM endpoint, agent type catalog, tool/permission/hook wiring, the
// MCP server catalog pointer, session and workflow storage, and the
// ambient logging/performance settings.
type Config struct {
	Version string `yaml:"version,omitempty"`

	LLM         LLMConfig                  `yaml:"llm,omitempty"`
	Agents      map[string]AgentTypeConfig `yaml:"agents,omitempty"`
	Tools       ToolsConfig                `yaml:"tools,omitempty"`
	Permissions PermissionsConfig          `yaml:"permissions,omitempty"`
	Hooks       []HookConfig               `yaml:"hooks,omitempty"`
	MCP         MCPConfig                  `yaml:"mcp,omitempty"`
	Session     SessionConfig              `yaml:"session,omitempty"`
	Undo        UndoConfig                 `yaml:"undo,omitempty"`
	Workflow    WorkflowConfig             `yaml:"workflow,omitempty"`
	Interface   InterfaceConfig            `yaml:"interface,omitempty"`
	Logging     LoggingConfig              `yaml:"logging,omitempty"`
	Performance PerformanceConfig          `yaml:"performance,omitempty"`
}

// Validate implements ConfigInterface for Config.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	for name, a := range c.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agent %q validation failed: %w", name, err)
		}
	}
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools validation failed: %w", err)
	}
	if err := c.Permissions.Validate(); err != nil {
		return fmt.Errorf("permissions validation failed: %w", err)
	}
	for i := range c.Hooks {
		if err := c.Hooks[i].Validate(); err != nil {
			return fmt.Errorf("hook %d validation failed: %w", i, err)
		}
	}
	if err := c.MCP.Validate(); err != nil {
		return fmt.Errorf("mcp validation failed: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}
	if err := c.Undo.Validate(); err != nil {
		return fmt.Errorf("undo validation failed: %w", err)
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow validation failed: %w", err)
	}
	if err := c.Interface.Validate(); err != nil {
		return fmt.Errorf("interface validation failed: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}
	if err := c.Performance.Validate(); err != nil {
		return fmt.Errorf("performance validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements ConfigInterface for Config. Zero-config mode
// (no agents section at all) registers one general-purpose agent type so
// the CLI has something to spawn without requiring a config file.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()

	if c.Agents == nil {
		c.Agents = make(map[string]AgentTypeConfig)
	}
	if len(c.Agents) == 0 {
		c.Agents["general"] = AgentTypeConfig{Name: "general"}
	}
	for name, a := range c.Agents {
		a.SetDefaults()
		if a.Name == "" {
			a.Name = name
		}
		c.Agents[name] = a
	}

	c.Tools.SetDefaults()
	c.Permissions.SetDefaults()
	for i := range c.Hooks {
		c.Hooks[i].SetDefaults()
	}
	c.MCP.SetDefaults()
	c.Session.SetDefaults()
	c.Undo.SetDefaults()
	c.Workflow.SetDefaults()
	c.Interface.SetDefaults()
	c.Logging.SetDefaults()
	c.Performance.SetDefaults()
}

// ============================================================================
// CONFIGURATION LOADING
// ============================================================================

// LoadConfig loads the complete configuration from a YAML file, applying
// environment-variable expansion, defaults, and validation. A missing file
// is zero-config: every section gets its defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.SetDefaults()
			if verr := cfg.Validate(); verr != nil {
				return nil, fmt.Errorf("zero-config validation failed: %w", verr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return LoadConfigFromString(string(data))
}

// LoadConfigFromString loads configuration from a YAML document, the same
// way LoadConfig does for a file on disk.
func LoadConfigFromString(yamlContent string) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	expanded := ExpandEnvVarsInData(raw)
	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("re-encode expanded config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(reencoded, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// GetAgent returns an agent type configuration by name.
func (c *Config) GetAgent(name string) (AgentTypeConfig, bool) {
	a, ok := c.Agents[name]
	return a, ok
}

// ListAgents returns every configured agent type name.
func (c *Config) ListAgents() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	return names
}
