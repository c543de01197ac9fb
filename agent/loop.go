package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/tool"
)

// Run drives one agent through the loop described in spec §4.8: compose a
// prompt, stream the LLM, execute any requested tool calls, and repeat
// until the model stops calling tools or a loop bound is hit.
//
// Grounded on Agent.execute (agent/agent.go): the same
// iterate/call-LLM/execute-tools/check-stop shape, rebuilt around this
// repo's llm.Client streaming API and tool.Registry dispatch pipeline
// instead of a pluggable ReasoningStrategy, since this
// has one fixed loop rather than a family of reasoning strategies.
func Run(ctx context.Context, a *Agent, client *llm.Client, tools *tool.Registry, ec *tool.ExecutionContext, onText func(string)) (*Result, error) {
	a.setState(StateRunning)
	a.mu.Lock()
	a.startedAt = time.Now()
	a.mu.Unlock()

	toolDefs := buildToolDefs(tools)
	messages := buildPrompt(a.Config, a.Context, a.History(), a.Task)

	for iter := 0; iter < a.Config.MaxIterations; iter++ {
		if ctx.Err() != nil {
			return a.finish(StateCancelled, &Result{Success: false, Message: "cancelled"}), nil
		}

		collector, ch, err := client.StreamIndexed(ctx, messages, toolDefs)
		if err != nil {
			if ctx.Err() != nil {
				return a.finish(StateCancelled, &Result{Success: false, Message: "cancelled"}), nil
			}
			return a.finish(StateFailed, &Result{Success: false, Message: fmt.Sprintf("llm request failed: %v", err)}), nil
		}

		var streamErr error
		for chunk := range ch {
			switch chunk.Type {
			case "text":
				if onText != nil {
					onText(chunk.Text)
				}
			case "error":
				streamErr = chunk.Error
			}
		}
		if ctx.Err() != nil {
			return a.finish(StateCancelled, &Result{Success: false, Message: "cancelled"}), nil
		}
		if streamErr != nil {
			return a.finish(StateFailed, &Result{Success: false, Message: fmt.Sprintf("llm stream error: %v", streamErr)}), nil
		}

		if usage := collector.FinalUsage(); usage != nil {
			a.addTokens(usage.TotalTokens)
		}

		assistantMsg := collector.GetMessage()
		messages = append(messages, assistantMsg)

		if len(assistantMsg.ToolCalls) == 0 {
			a.setHistory(messages)
			return a.finish(StateCompleted, &Result{Success: true, Message: assistantMsg.Content}), nil
		}

		for _, call := range assistantMsg.ToolCalls {
			if ctx.Err() != nil {
				return a.finish(StateCancelled, &Result{Success: false, Message: "cancelled mid tool-call"}), nil
			}

			result, execErr := tools.Execute(ctx, ec, call.Name, call.Arguments)
			if execErr != nil {
				result = tool.Fail(execErr.Error())
			}
			a.incToolCalls()
			if id, ok := result.Metadata["undo_id"].(string); ok {
				a.recordUndoID(id)
			}

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    toolResultContent(result),
				ToolCallID: call.ID,
			})
		}

		if a.Stats().TokensUsed >= a.Config.MaxTokens {
			a.setHistory(messages)
			return a.finish(StateFailed, &Result{Success: false, Message: "budget-exceeded: max tokens reached"}), nil
		}
	}

	a.setHistory(messages)
	return a.finish(StateFailed, &Result{Success: false, Message: "budget-exceeded: max iterations reached"}), nil
}

func (a *Agent) finish(s State, r *Result) *Result {
	a.mu.Lock()
	a.state = s
	a.result = r
	a.stats.TimeSeconds = time.Since(a.startedAt).Seconds()
	a.mu.Unlock()
	return r
}

func (a *Agent) setHistory(messages []llm.Message) {
	a.mu.Lock()
	a.history = messages
	a.mu.Unlock()
}

func (a *Agent) addTokens(n int) {
	a.mu.Lock()
	a.stats.TokensUsed += n
	a.mu.Unlock()
}

func (a *Agent) incToolCalls() {
	a.mu.Lock()
	a.stats.ToolCalls++
	a.mu.Unlock()
}

func buildToolDefs(tools *tool.Registry) []llm.ToolDefinition {
	if tools == nil {
		return nil
	}
	infos := tools.List()
	defs := make([]llm.ToolDefinition, 0, len(infos))
	for _, info := range infos {
		schema, _ := tools.Schema(info.Name)
		defs = append(defs, llm.ToolDefinition{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  schema,
		})
	}
	return defs
}

// toolResultContent serializes a tool.Result into the string the "tool"
// role message carries back to the model, matching the wire-level
// function-calling protocol both OpenAI and OpenRouter expect.
func toolResultContent(result tool.Result) string {
	if !result.Success {
		return fmt.Sprintf("error: %s", result.Error)
	}
	data, err := json.Marshal(result.Output)
	if err != nil {
		return fmt.Sprintf("%v", result.Output)
	}
	return string(data)
}
