package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePattern_CombinedClauses(t *testing.T) {
	clauses := parsePattern("tool:Bash,arg:command:*rm*")
	if assert.Len(t, clauses, 2) {
		assert.Equal(t, clause{kind: "tool", pattern: "Bash"}, clauses[0])
		assert.Equal(t, clause{kind: "arg", argName: "command", pattern: "*rm*"}, clauses[1])
	}
}

func TestSpecificity_ArgBeatsToolOnly(t *testing.T) {
	assert.Greater(t, specificity("tool:Bash,arg:command:*rm*"), specificity("tool:Bash"))
}

func TestSpecificity_ExactBeatsGlob(t *testing.T) {
	assert.Greater(t, specificity("tool:Bash"), specificity("tool:Ba*"))
}

func TestNormalizePathValue(t *testing.T) {
	assert.Equal(t, "/etc/passwd", normalizePathValue("/etc/../etc/passwd"))
	assert.Equal(t, "not-a-path", normalizePathValue("not-a-path"))
}

func TestMatchValue_GlobCrossesPathSeparators(t *testing.T) {
	assert.True(t, matchValue("*rm -rf*", "rm -rf /tmp/anything"))
	assert.True(t, matchValue("*.py", "pkg/sub/dir/test.py"))
	assert.False(t, matchValue("*.py", "test.txt"))
}

func TestMatchValue_ExactMatch(t *testing.T) {
	assert.True(t, matchValue("Bash", "Bash"))
	assert.False(t, matchValue("Bash", "Write"))
}
