package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamCollector_AccumulatesContent(t *testing.T) {
	c := NewStreamCollector()
	c.Feed(StreamChunk{Type: "text", Text: "Hello, "})
	c.Feed(StreamChunk{Type: "text", Text: "world!"})

	assert.Equal(t, "Hello, world!", c.Content())
	msg := c.GetMessage()
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "Hello, world!", msg.Content)
}

func TestStreamCollector_ToolCallDeltasMergeByIndex(t *testing.T) {
	c := NewStreamCollector()
	c.feedDelta(0, "call_1", "read_file", `{"path":`)
	c.feedDelta(1, "call_2", "write_file", `{"path":"b.txt"`)
	c.feedDelta(0, "", "", `"a.txt"}`)

	calls := c.ToolCalls()
	if assert.Len(t, calls, 2) {
		assert.Equal(t, "call_1", calls[0].ID)
		assert.Equal(t, "read_file", calls[0].Name)
		assert.Equal(t, `{"path":"a.txt"}`, calls[0].RawArgs)

		assert.Equal(t, "call_2", calls[1].ID)
		assert.Equal(t, "write_file", calls[1].Name)
	}
}

func TestStreamCollector_TracksModelAndFinishReason(t *testing.T) {
	c := NewStreamCollector()
	c.setModel("gpt-4o")
	c.setFinishReason("")
	c.setFinishReason("stop")

	assert.Equal(t, "gpt-4o", c.Model())
	assert.Equal(t, "stop", c.FinishReason())
}

func TestStreamCollector_FinalUsageOptional(t *testing.T) {
	c := NewStreamCollector()
	assert.Nil(t, c.FinalUsage())

	c.setUsage(10, 5, 15)
	usage := c.FinalUsage()
	if assert.NotNil(t, usage) {
		assert.Equal(t, 10, usage.PromptTokens)
		assert.Equal(t, 5, usage.CompletionTokens)
		assert.Equal(t, 15, usage.TotalTokens)
	}
}
