package llm

import (
	"encoding/json"
	"sort"
)

// StreamCollector accumulates a Stream's chunks into a final Message, per
// spec §4.7: growing content, tool_calls kept in delta-index order, the
// latest model/finish_reason seen, and an optional final usage block.
//
// Grounded on makeStreamingRequest tool-call delta
// accumulation (llms/openai.go), which keys partial tool calls by their
// first-seen stream index and concatenates each one's argument fragments
// as they arrive, since a single tool call's JSON arguments can span many
// deltas.
type StreamCollector struct {
	content      []byte
	model        string
	finishReason string
	usage        *Usage
	order        []int
	byIndex      map[int]*ToolCall
}

// NewStreamCollector returns an empty collector.
func NewStreamCollector() *StreamCollector {
	return &StreamCollector{byIndex: make(map[int]*ToolCall)}
}

// Feed folds one chunk into the collector's running state. Tool-call
// deltas arrive through feedDelta instead, since Client.StreamIndexed has the
// raw per-index fragments before it ever materializes a StreamChunk.
func (c *StreamCollector) Feed(chunk StreamChunk) {
	if chunk.Type == "text" {
		c.content = append(c.content, chunk.Text...)
	}
}

// feedDelta folds one raw streaming tool-call delta, keyed by its index,
// the way the wire format spreads one call's id/name/arguments across
// several chunks. Called internally by Client.StreamIndexed rather than by users
// of the public Feed API, which only sees fully-typed StreamChunks.
func (c *StreamCollector) feedDelta(index int, id, name, argsFragment string) {
	tc, ok := c.byIndex[index]
	if !ok {
		tc = &ToolCall{}
		c.byIndex[index] = tc
		c.order = append(c.order, index)
	}
	if id != "" {
		tc.ID = id
	}
	if name != "" {
		tc.Name = name
	}
	tc.RawArgs += argsFragment
}

func (c *StreamCollector) setModel(m string) {
	if m != "" {
		c.model = m
	}
}

func (c *StreamCollector) setFinishReason(r string) {
	if r != "" {
		c.finishReason = r
	}
}

func (c *StreamCollector) setUsage(prompt, completion, total int) {
	c.usage = &Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}

// ToolCalls returns the accumulated calls in first-seen delta-index order.
func (c *StreamCollector) ToolCalls() []ToolCall {
	if len(c.order) == 0 {
		return nil
	}
	indices := append([]int(nil), c.order...)
	sort.Ints(indices)
	out := make([]ToolCall, 0, len(indices))
	for _, i := range indices {
		tc := *c.byIndex[i]
		if tc.Arguments == nil && tc.RawArgs != "" {
			var args map[string]any
			if json.Unmarshal([]byte(tc.RawArgs), &args) == nil {
				tc.Arguments = args
			}
		}
		out = append(out, tc)
	}
	return out
}

// Content returns the accumulated assistant text.
func (c *StreamCollector) Content() string { return string(c.content) }

// Model returns the last non-empty model name seen in the stream.
func (c *StreamCollector) Model() string { return c.model }

// FinishReason returns the last non-empty finish_reason seen in the stream.
func (c *StreamCollector) FinishReason() string { return c.finishReason }

// FinalUsage returns the terminal usage block, if the provider sent one.
func (c *StreamCollector) FinalUsage() *Usage { return c.usage }

// GetMessage materializes the collected state as an assistant Message.
func (c *StreamCollector) GetMessage() Message {
	return Message{
		Role:      "assistant",
		Content:   c.Content(),
		ToolCalls: c.ToolCalls(),
	}
}
