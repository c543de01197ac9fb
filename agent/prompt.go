package agent

import (
	"strings"

	"github.com/forgecode/forge/llm"
)

// buildPrompt composes step 1 of the agent loop: the type's system prompt,
// session/system context (active file, recent operations, project-language
// hints, optional RAG snippet), the message history, and the new task —
// in that order, as a message list ready for the LLM client.
//
// Grounded on buildPromptSlots/BuildMessages split
// (agent/agent.go, agent/services.go's DefaultPromptService), collapsed
// here into one function since this spec has no slot-override or
// extension-formatting layer to thread through.
func buildPrompt(cfg TypeConfig, taskCtx TaskContext, history []llm.Message, task string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)

	if system := composeSystemPrompt(cfg, taskCtx); system != "" {
		messages = append(messages, llm.Message{Role: "system", Content: system})
	}

	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: task})
	return messages
}

func composeSystemPrompt(cfg TypeConfig, taskCtx TaskContext) string {
	var b strings.Builder
	b.WriteString(cfg.SystemPrompt)

	var extras []string
	if taskCtx.ActiveFile != "" {
		extras = append(extras, "Active file: "+taskCtx.ActiveFile)
	}
	if taskCtx.ProjectLanguage != "" {
		extras = append(extras, "Project language: "+taskCtx.ProjectLanguage)
	}
	if len(taskCtx.RecentOperations) > 0 {
		extras = append(extras, "Recent operations:\n- "+strings.Join(taskCtx.RecentOperations, "\n- "))
	}
	if taskCtx.RAGSnippet != "" {
		extras = append(extras, "Relevant context:\n"+taskCtx.RAGSnippet)
	}

	if len(extras) == 0 {
		return b.String()
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(extras, "\n\n"))
	return b.String()
}
