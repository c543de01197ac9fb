package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuleSet_MissingFileYieldsDefault(t *testing.T) {
	rs, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.json"), Ask)
	require.NoError(t, err)
	assert.Equal(t, Ask, rs.Default)
	assert.Empty(t, rs.Rules)
}

func TestLoadRuleSet_EmptyPathYieldsDefault(t *testing.T) {
	rs, err := LoadRuleSet("", Deny)
	require.NoError(t, err)
	assert.Equal(t, Deny, rs.Default)
}

func TestLoadRuleSet_ParsesRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.json")
	doc := `{"default":"ask","rules":[{"pattern":"tool:Bash,arg:command:*rm -rf*","permission":"deny","priority":100,"enabled":true,"description":"block destructive rm"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	rs, err := LoadRuleSet(path, Allow)
	require.NoError(t, err)
	assert.Equal(t, Ask, rs.Default)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, Deny, rs.Rules[0].Permission)

	result := rs.Evaluate("Bash", map[string]any{"command": "rm -rf /tmp/x"})
	assert.Equal(t, Deny, result.Level)
}

func TestSaveRuleSet_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.json")
	rs := NewRuleSet(Ask)
	rs.AddRule(Rule{Pattern: "tool:Read", Permission: Allow, Priority: 10, Enabled: true})

	require.NoError(t, SaveRuleSet(path, rs))

	loaded, err := LoadRuleSet(path, Deny)
	require.NoError(t, err)
	assert.Equal(t, Ask, loaded.Default)
	require.Len(t, loaded.Rules, 1)
	assert.Equal(t, "tool:Read", loaded.Rules[0].Pattern)
}
