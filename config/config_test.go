package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromString_ZeroConfigFillsDefaults(t *testing.T) {
	cfg, err := LoadConfigFromString("")
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Contains(t, cfg.Agents, "general")
	assert.Equal(t, "ask", cfg.Permissions.DefaultLevel)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Performance.MaxConcurrency)
}

func TestLoadConfigFromString_ParsesDocument(t *testing.T) {
	doc := `
version: "1"
llm:
  model: openai/gpt-4o
agents:
  coder:
    system_prompt: "you write code"
    max_iterations: 10
tools:
  allowed_root: /tmp/project
hooks:
  - event: "tool:Write:pre"
    command: "echo pre"
`
	cfg, err := LoadConfigFromString(doc)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", cfg.LLM.Model)
	require.Contains(t, cfg.Agents, "coder")
	assert.Equal(t, 10, cfg.Agents["coder"].MaxIterations)
	assert.Equal(t, "/tmp/project", cfg.Tools.AllowedRoot)
	require.Len(t, cfg.Hooks, 1)
	assert.Equal(t, "tool:Write:pre", cfg.Hooks[0].EventPattern)
	assert.Equal(t, 10*time.Second, cfg.Hooks[0].Timeout)
}

func TestLoadConfigFromString_ExpandsEnvVars(t *testing.T) {
	t.Setenv("FORGE_TEST_MODEL", "anthropic/claude-3-5-sonnet")
	doc := `
llm:
  model: ${FORGE_TEST_MODEL}
`
	cfg, err := LoadConfigFromString(doc)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-5-sonnet", cfg.LLM.Model)
}

func TestLoadConfigFromString_InvalidValueFailsValidation(t *testing.T) {
	doc := `
llm:
  model: x
  temperature: 5
`
	_, err := LoadConfigFromString(doc)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Agents, "general")
}

func TestLoadConfig_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: openai/gpt-4o-mini\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
}

func TestConfig_PermissionsRejectsInvalidDefaultLevel(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Permissions.DefaultLevel = "maybe"
	assert.Error(t, cfg.Validate())
}

func TestConfig_SessionRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Session.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestConfig_ListAgentsAndGetAgent(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	assert.ElementsMatch(t, []string{"general"}, cfg.ListAgents())

	a, ok := cfg.GetAgent("general")
	require.True(t, ok)
	assert.Equal(t, "general", a.Name)

	_, ok = cfg.GetAgent("nonexistent")
	assert.False(t, ok)
}

func TestStrictValidate_FlagsUnknownField(t *testing.T) {
	doc := `
llm:
  model: openai/gpt-4o
  modle: typo-here
`
	issues := StrictValidate(doc)
	require.NotEmpty(t, issues)
}

func TestStrictValidate_AcceptsKnownDocument(t *testing.T) {
	doc := `
llm:
  model: openai/gpt-4o
agents:
  coder:
    system_prompt: "you write code"
`
	issues := StrictValidate(doc)
	assert.Empty(t, issues)
}
