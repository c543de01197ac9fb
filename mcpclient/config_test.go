package mcpclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Servers)
	assert.True(t, cfg.Settings.AutoConnect)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("FORGE_TEST_MCP_TOKEN", "secret123")

	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.yaml")
	doc := `
servers:
  search:
    transport: http
    url: "https://example.com/mcp"
    headers:
      Authorization: "Bearer ${FORGE_TEST_MCP_TOKEN}"
    enabled: true
    auto_connect: true
settings:
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Servers, "search")
	assert.Equal(t, "Bearer secret123", cfg.Servers["search"].Headers["Authorization"])
}

func TestMerge_ProjectOverridesGlobalPerServerName(t *testing.T) {
	base := &Config{Servers: map[string]ServerConfig{
		"a": {Transport: "stdio", Command: "global-a"},
		"b": {Transport: "stdio", Command: "global-b"},
	}, Settings: defaultSettings()}

	override := &Config{Servers: map[string]ServerConfig{
		"a": {Transport: "stdio", Command: "project-a"},
	}}

	merged := Merge(base, override)
	assert.Equal(t, "project-a", merged.Servers["a"].Command)
	assert.Equal(t, "global-b", merged.Servers["b"].Command)
}
