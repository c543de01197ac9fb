// Package config provides configuration types and utilities for the agent
// framework.
package config

import (
	"fmt"
	"os"
	"time"
)

// ============================================================================
// LLM CONFIGURATION
// ============================================================================

// LLMConfig configures the single chat-completions endpoint every agent
// type shares (spec §4.7): an OpenAI-compatible API, OpenRouter by default.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`

	AppName string `yaml:"app_name,omitempty"`
	AppURL  string `yaml:"app_url,omitempty"`

	MaxRetries int           `yaml:"max_retries,omitempty"`
	BaseDelay  time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay   time.Duration `yaml:"max_delay,omitempty"`
}

func (c *LLMConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

func (c *LLMConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("FORGE_API_KEY")
	}
	if c.Model == "" {
		c.Model = "openai/gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
}

// ============================================================================
// AGENT TYPE CONFIGURATION
// ============================================================================

// AgentTypeConfig is one entry of the agents map: the prompt and loop
// bounds a named agent type (e.g. "coder", "reviewer") runs with.
type AgentTypeConfig struct {
	Name          string `yaml:"name"`
	SystemPrompt  string `yaml:"system_prompt"`
	MaxIterations int    `yaml:"max_iterations,omitempty"`
	MaxTokens     int    `yaml:"max_tokens,omitempty"`
}

func (c *AgentTypeConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	return nil
}

func (c *AgentTypeConfig) SetDefaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are a careful, methodical coding assistant. Use the available tools to inspect and modify the project before answering."
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 25
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 100_000
	}
}

// ============================================================================
// TOOL RUNTIME CONFIGURATION
// ============================================================================

// ToolsConfig bounds which built-in tools are offered to the agent loop and
// confines filesystem-mutating tools to a root directory (spec §4.5).
type ToolsConfig struct {
	AllowedRoot string   `yaml:"allowed_root,omitempty"`
	Enabled     []string `yaml:"enabled,omitempty"`
	Disabled    []string `yaml:"disabled,omitempty"`
}

func (c *ToolsConfig) Validate() error {
	if len(c.Enabled) > 0 && len(c.Disabled) > 0 {
		return fmt.Errorf("enabled and disabled tool lists are mutually exclusive")
	}
	return nil
}

func (c *ToolsConfig) SetDefaults() {}

// ============================================================================
// PERMISSION ENGINE CONFIGURATION
// ============================================================================

// PermissionsConfig points the Permission Engine (C3) at its rule files and
// configures the default decision and denial rate limiting.
type PermissionsConfig struct {
	GlobalRulesPath  string `yaml:"global_rules_path,omitempty"`
	ProjectRulesPath string `yaml:"project_rules_path,omitempty"`
	DefaultLevel     string `yaml:"default_level,omitempty"`
	RateLimiting     bool   `yaml:"rate_limiting"`
}

func (c *PermissionsConfig) Validate() error {
	switch c.DefaultLevel {
	case "", "allow", "ask", "deny":
	default:
		return fmt.Errorf("invalid default_level: %s", c.DefaultLevel)
	}
	return nil
}

func (c *PermissionsConfig) SetDefaults() {
	if c.DefaultLevel == "" {
		c.DefaultLevel = "ask"
	}
	if c.GlobalRulesPath == "" {
		c.GlobalRulesPath = "~/.forge/permissions.json"
	}
}

// ============================================================================
// HOOK CONFIGURATION
// ============================================================================

// HookConfig is one user-configured hook binding (spec §4.4): the event
// pattern it fires on, the command it runs, and its execution environment.
type HookConfig struct {
	EventPattern string            `yaml:"event"`
	Command      string            `yaml:"command"`
	Env          map[string]string `yaml:"env,omitempty"`
	WorkingDir   string            `yaml:"working_dir,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
}

func (c *HookConfig) Validate() error {
	if c.EventPattern == "" {
		return fmt.Errorf("event is required")
	}
	if c.Command == "" {
		return fmt.Errorf("command is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func (c *HookConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// ============================================================================
// MCP CLIENT CONFIGURATION
// ============================================================================

// MCPConfig points at the mcp.yaml document the MCP Client (C6) loads its
// server catalog from; the document itself is parsed by mcpclient.Load.
type MCPConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ConfigPath string `yaml:"config_path,omitempty"`
}

func (c *MCPConfig) Validate() error { return nil }

func (c *MCPConfig) SetDefaults() {
	if c.ConfigPath == "" {
		c.ConfigPath = "mcp.yaml"
	}
}

// ============================================================================
// SESSION STORE CONFIGURATION
// ============================================================================

// SessionConfig selects the Session Store (C9) backend: the default
// atomic-JSON-file store, or an optional SQLite-backed store for
// deployments that want queryable history.
type SessionConfig struct {
	Backend    string `yaml:"backend,omitempty"` // "file" or "sqlite"
	DataDir    string `yaml:"data_dir,omitempty"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

func (c *SessionConfig) Validate() error {
	switch c.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("invalid backend: %s (must be file or sqlite)", c.Backend)
	}
	return nil
}

func (c *SessionConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.DataDir == "" {
		c.DataDir = "~/.forge/sessions"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "~/.forge/sessions.db"
	}
}

// ============================================================================
// UNDO STORE CONFIGURATION
// ============================================================================

// UndoConfig bounds the Undo Store (C2): how many entries each session
// keeps and how large a single file snapshot may be before capture is
// skipped.
type UndoConfig struct {
	MaxHistory       int   `yaml:"max_history,omitempty"`
	MaxSnapshotBytes int64 `yaml:"max_snapshot_bytes,omitempty"`
}

func (c *UndoConfig) Validate() error {
	if c.MaxHistory < 0 {
		return fmt.Errorf("max_history must not be negative")
	}
	if c.MaxSnapshotBytes < 0 {
		return fmt.Errorf("max_snapshot_bytes must not be negative")
	}
	return nil
}

func (c *UndoConfig) SetDefaults() {
	if c.MaxHistory == 0 {
		c.MaxHistory = 50
	}
	if c.MaxSnapshotBytes == 0 {
		c.MaxSnapshotBytes = 5 * 1024 * 1024
	}
}

// ============================================================================
// WORKFLOW ENGINE CONFIGURATION
// ============================================================================

// WorkflowConfig points the Workflow Engine (C10) at the directory it
// loads YAML workflow definitions from and where it persists checkpoints.
type WorkflowConfig struct {
	Directory     string `yaml:"directory,omitempty"`
	CheckpointDir string `yaml:"checkpoint_dir,omitempty"`
}

func (c *WorkflowConfig) Validate() error { return nil }

func (c *WorkflowConfig) SetDefaults() {
	if c.Directory == "" {
		c.Directory = "workflows"
	}
	if c.CheckpointDir == "" {
		c.CheckpointDir = "~/.forge/checkpoints"
	}
}

// ============================================================================
// INTERFACE CONFIGURATION
// ============================================================================

// InterfaceConfig carries the CLI-facing preferences spec §6 lists among
// the environment variables the core honors (FORGE_THEME, FORGE_VIM_MODE,
// FORGE_STREAMING) even though the CLI surface itself is illustrative.
type InterfaceConfig struct {
	Theme     string `yaml:"theme,omitempty"`
	VimMode   bool   `yaml:"vim_mode"`
	Streaming bool   `yaml:"streaming"`
}

func (c *InterfaceConfig) Validate() error { return nil }

func (c *InterfaceConfig) SetDefaults() {
	if c.Theme == "" {
		c.Theme = "default"
	}
	c.Streaming = true
}

// ============================================================================
// LOGGING CONFIGURATION
// ============================================================================

// LoggingConfig configures the process-wide slog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, file
}

func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output destination: %s", c.Output)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// ============================================================================
// PERFORMANCE CONFIGURATION
// ============================================================================

// PerformanceConfig bounds the Agent Manager's live-agent concurrency and
// the default per-step/per-call timeout.
type PerformanceConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
}

func (c *PerformanceConfig) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func (c *PerformanceConfig) SetDefaults() {
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Minute
	}
}
