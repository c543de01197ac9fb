package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecode/forge/llm"
	"github.com/forgecode/forge/tool"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoTool struct{}

func (echoTool) Info() tool.Info {
	return tool.Info{Name: "echo", Description: "echoes its input", Category: tool.CategoryOther, ArgsExample: &echoArgs{}}
}

func (echoTool) Execute(ctx context.Context, ec *tool.ExecutionContext, args map[string]any) (tool.Result, error) {
	return tool.Ok(map[string]any{"echoed": args["text"]}), nil
}

func chatCompletionsStub(t *testing.T, responses []string) *httptest.Server {
	t.Helper()
	i := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Less(t, i, len(responses), "unexpected extra request to stub LLM server")
		fmt.Fprint(w, responses[i])
		i++
	}))
}

func oneShotResponse(content string) string {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
	})
	return "data: " + string(data) + "\n\ndata: [DONE]\n\n"
}

func toolCallResponse(callID, name, argsJSON string) string {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"delta": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"index": 0,
					"id":    callID,
					"type":  "function",
					"function": map[string]any{
						"name":      name,
						"arguments": argsJSON,
					},
				}},
			},
			"finish_reason": "tool_calls",
		}},
		"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
	})
	return "data: " + string(data) + "\n\ndata: [DONE]\n\n"
}

func TestRun_CompletesWithoutToolCalls(t *testing.T) {
	srv := chatCompletionsStub(t, []string{oneShotResponse("done, no tools needed")})
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	defer client.Close()

	registry := tool.NewRegistry()
	a := New("a1", "coder", TypeConfig{SystemPrompt: "you write code", MaxIterations: 5}, TaskContext{}, "say hi", nil)

	result, err := Run(context.Background(), a, client, registry, &tool.ExecutionContext{SessionID: "a1"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done, no tools needed", result.Message)
	assert.Equal(t, StateCompleted, a.State())
	assert.Equal(t, 8, a.Stats().TokensUsed)
}

func TestRun_ExecutesToolCallThenCompletes(t *testing.T) {
	srv := chatCompletionsStub(t, []string{
		toolCallResponse("call_1", "echo", `{"text":"hello"}`),
		oneShotResponse("echoed it for you"),
	})
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	defer client.Close()

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}))

	a := New("a2", "coder", TypeConfig{SystemPrompt: "you write code", MaxIterations: 5}, TaskContext{}, "echo hello", nil)

	result, err := Run(context.Background(), a, client, registry, &tool.ExecutionContext{SessionID: "a2"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, StateCompleted, a.State())
	assert.Equal(t, 1, a.Stats().ToolCalls)

	history := a.History()
	var sawToolMessage bool
	for _, m := range history {
		if m.Role == "tool" && m.ToolCallID == "call_1" {
			sawToolMessage = true
			assert.Contains(t, m.Content, "hello")
		}
	}
	assert.True(t, sawToolMessage)
}

func TestRun_MaxIterationsYieldsBudgetExceededFailure(t *testing.T) {
	responses := make([]string, 3)
	for i := range responses {
		responses[i] = toolCallResponse("call_x", "echo", `{"text":"x"}`)
	}
	srv := chatCompletionsStub(t, responses)
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	defer client.Close()

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}))

	a := New("a3", "coder", TypeConfig{SystemPrompt: "loop", MaxIterations: 3}, TaskContext{}, "loop forever", nil)

	result, err := Run(context.Background(), a, client, registry, &tool.ExecutionContext{SessionID: "a3"}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "budget-exceeded")
	assert.Equal(t, StateFailed, a.State())
}

func TestRun_CancelledContextStopsBeforeNextIteration(t *testing.T) {
	srv := chatCompletionsStub(t, []string{toolCallResponse("call_1", "echo", `{"text":"x"}`)})
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini"})
	defer client.Close()

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}))

	a := New("a4", "coder", TypeConfig{SystemPrompt: "x", MaxIterations: 5}, TaskContext{}, "go", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, a, client, registry, &tool.ExecutionContext{SessionID: "a4"}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, StateCancelled, a.State())
}
