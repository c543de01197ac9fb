package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config configures a Client. BaseURL defaults to OpenRouter's endpoint,
// the way spec §4.7 describes an "OpenAI-compatible chat-completions API,
// with an OpenRouter-style routing header" — any OpenAI-compatible base
// URL works, OpenRouter is just the default.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int

	// AppName/AppURL populate OpenRouter's HTTP-Referer/X-Title routing
	// headers, which it uses for attribution on its public model leaderboards.
	AppName string
	AppURL  string

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	return c
}

// Client talks to one OpenAI-compatible chat-completions endpoint. Safe
// for concurrent use; Close releases its idle connections.
type Client struct {
	cfg       Config
	transport *retryTransport
	usage     *Usage
	tokens    *tokenCounter
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:       cfg,
		transport: newRetryTransport(cfg.HTTPClient, cfg.MaxRetries, cfg.BaseDelay, cfg.MaxDelay),
		usage:     &Usage{},
		tokens:    newTokenCounter(),
	}
}

// Usage returns the client's running token usage accumulator.
func (c *Client) Usage() *Usage { return c.usage }

// CountTokens estimates the token cost of messages client-side, for callers
// that need it before issuing a request.
func (c *Client) CountTokens(messages []Message) int {
	return c.tokens.CountMessages(messages)
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.transport.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) buildRequest(ctx context.Context, messages []Message, tools []ToolDefinition, stream bool) (*http.Request, []byte, error) {
	model := c.cfg.Model
	req := wireRequest{
		Model:       model,
		Messages:    toWireMessages(messages),
		Temperature: c.cfg.Temperature,
		Stream:      stream,
		Tools:       toWireTools(tools),
	}
	reasoningModel := strings.HasPrefix(model, "o1-") || strings.HasPrefix(model, "o3-")
	if !reasoningModel && c.cfg.MaxTokens > 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("llm: marshal request: %w", err)
	}
	if reasoningModel && c.cfg.MaxTokens > 0 {
		// o1/o3 reject max_tokens and require max_completion_tokens instead.
		var raw map[string]any
		json.Unmarshal(body, &raw)
		delete(raw, "max_tokens")
		raw["max_completion_tokens"] = c.cfg.MaxTokens
		body, _ = json.Marshal(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.AppURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.AppURL)
	}
	if c.cfg.AppName != "" {
		httpReq.Header.Set("X-Title", c.cfg.AppName)
	}
	return httpReq, body, nil
}

// Complete issues a single non-streaming chat-completions request and
// returns the assistant's reply message.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error) {
	httpReq, body, err := c.buildRequest(ctx, messages, tools, false)
	if err != nil {
		return Message{}, err
	}

	resp, err := c.transport.do(ctx, httpReq, body)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Message{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if wire.Error != nil {
		return Message{}, fmt.Errorf("llm: %s: %s", wire.Error.Type, wire.Error.Message)
	}
	if len(wire.Choices) == 0 {
		return Message{}, fmt.Errorf("llm: response had no choices")
	}

	c.usage.Add(wire.Usage.PromptTokens, wire.Usage.CompletionTokens)
	return fromWireMessage(wire.Choices[0].Message), nil
}

func fromWireMessage(wm wireMessage) Message {
	m := Message{Role: wm.Role, Content: wm.Content, ToolCallID: wm.ToolCallID}
	for _, tc := range wm.ToolCalls {
		call := ToolCall{ID: tc.ID, Name: tc.Function.Name, RawArgs: tc.Function.Arguments}
		var args map[string]any
		if json.Unmarshal([]byte(tc.Function.Arguments), &args) == nil {
			call.Arguments = args
		}
		m.ToolCalls = append(m.ToolCalls, call)
	}
	return m
}

// Stream issues a streaming chat-completions request and delivers chunks
// on the returned channel as they arrive. The channel is closed once the
// stream ends (a "done" chunk is sent first) or the context is canceled.
func (c *Client) Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	httpReq, body, err := c.buildRequest(ctx, messages, tools, true)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.transport.do(ctx, httpReq, body)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk, 16)
	go c.pump(ctx, resp, out)
	return out, nil
}

func (c *Client) pump(ctx context.Context, resp *http.Response, out chan<- StreamChunk) {
	defer close(out)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	emit := func(chunk StreamChunk) bool {
		select {
		case out <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			emit(StreamChunk{Type: "done"})
			return
		}

		var wire wireStreamResponse
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			continue
		}
		if wire.Error != nil {
			emit(StreamChunk{Type: "error", Error: fmt.Errorf("llm: %s: %s", wire.Error.Type, wire.Error.Message)})
			return
		}
		if wire.Usage != nil {
			c.usage.Add(wire.Usage.PromptTokens, wire.Usage.CompletionTokens)
		}
		for _, choice := range wire.Choices {
			if choice.Delta.Content != "" {
				if !emit(StreamChunk{Type: "text", Text: choice.Delta.Content}) {
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				call := ToolCall{ID: tc.ID, Name: tc.Function.Name, RawArgs: tc.Function.Arguments}
				if !emit(StreamChunk{Type: "tool_call", ToolCall: &call}) {
					return
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		emit(StreamChunk{Type: "error", Error: err})
	}
}

// StreamIndexed issues the same streaming request as Stream but merges the
// raw per-index tool-call deltas into a StreamCollector, since the public
// StreamChunk shape doesn't carry the delta index callers need to merge
// fragments correctly. Tool calls are therefore read from the collector;
// the channel carries only "text", "error" and "done" chunks. The Agent
// Loop drives a stream through this whenever it needs the final assembled
// message.
func (c *Client) StreamIndexed(ctx context.Context, messages []Message, tools []ToolDefinition) (*StreamCollector, <-chan StreamChunk, error) {
	httpReq, body, err := c.buildRequest(ctx, messages, tools, true)
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.transport.do(ctx, httpReq, body)
	if err != nil {
		return nil, nil, err
	}

	collector := NewStreamCollector()
	out := make(chan StreamChunk, 16)
	go c.pumpIndexed(ctx, resp, collector, out)
	return collector, out, nil
}

func (c *Client) pumpIndexed(ctx context.Context, resp *http.Response, collector *StreamCollector, out chan<- StreamChunk) {
	defer close(out)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	emit := func(chunk StreamChunk) bool {
		select {
		case out <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			emit(StreamChunk{Type: "done"})
			return
		}

		var wire wireStreamResponse
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			continue
		}
		if wire.Error != nil {
			emit(StreamChunk{Type: "error", Error: fmt.Errorf("llm: %s: %s", wire.Error.Type, wire.Error.Message)})
			return
		}
		collector.setModel(wire.Model)
		if wire.Usage != nil {
			collector.setUsage(wire.Usage.PromptTokens, wire.Usage.CompletionTokens, wire.Usage.TotalTokens)
			c.usage.Add(wire.Usage.PromptTokens, wire.Usage.CompletionTokens)
		}
		for _, choice := range wire.Choices {
			collector.setFinishReason(choice.FinishReason)
			if choice.Delta.Content != "" {
				collector.Feed(StreamChunk{Type: "text", Text: choice.Delta.Content})
				if !emit(StreamChunk{Type: "text", Text: choice.Delta.Content}) {
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				collector.feedDelta(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		emit(StreamChunk{Type: "error", Error: err})
	}
}
