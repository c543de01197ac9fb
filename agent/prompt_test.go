package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgecode/forge/llm"
)

func TestBuildPrompt_SystemThenHistoryThenTask(t *testing.T) {
	cfg := TypeConfig{SystemPrompt: "You are a coding agent."}
	history := []llm.Message{{Role: "user", Content: "earlier question"}, {Role: "assistant", Content: "earlier answer"}}

	messages := buildPrompt(cfg, TaskContext{}, history, "new task")

	if assert.Len(t, messages, 4) {
		assert.Equal(t, "system", messages[0].Role)
		assert.Equal(t, "You are a coding agent.", messages[0].Content)
		assert.Equal(t, "earlier question", messages[1].Content)
		assert.Equal(t, "earlier answer", messages[2].Content)
		assert.Equal(t, "user", messages[3].Role)
		assert.Equal(t, "new task", messages[3].Content)
	}
}

func TestComposeSystemPrompt_FoldsInTaskContext(t *testing.T) {
	cfg := TypeConfig{SystemPrompt: "Base prompt."}
	taskCtx := TaskContext{
		ActiveFile:       "main.go",
		ProjectLanguage:  "Go",
		RecentOperations: []string{"edited main.go", "ran tests"},
		RAGSnippet:       "func main() {}",
	}

	system := composeSystemPrompt(cfg, taskCtx)
	assert.Contains(t, system, "Base prompt.")
	assert.Contains(t, system, "main.go")
	assert.Contains(t, system, "Go")
	assert.Contains(t, system, "edited main.go")
	assert.Contains(t, system, "func main() {}")
}

func TestComposeSystemPrompt_NoContextIsJustSystemPrompt(t *testing.T) {
	cfg := TypeConfig{SystemPrompt: "Just this."}
	assert.Equal(t, "Just this.", composeSystemPrompt(cfg, TaskContext{}))
}
