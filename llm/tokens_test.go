package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenCounter_CountIsPositiveForNonEmptyText(t *testing.T) {
	c := newTokenCounter()
	n := c.Count("The quick brown fox jumps over the lazy dog.")
	assert.Greater(t, n, 0)
}

func TestTokenCounter_CountMessages_SumsAcrossMessages(t *testing.T) {
	c := newTokenCounter()
	messages := []Message{
		{Role: "user", Content: "hello there"},
		{Role: "assistant", Content: "hi, how can I help?"},
	}
	total := c.CountMessages(messages)
	assert.Greater(t, total, c.Count("hello there"))
}

func TestTokenCounter_NilEncoderFallsBackToHeuristic(t *testing.T) {
	c := &tokenCounter{enc: nil}
	assert.Equal(t, len("abcd")/4, c.Count("abcd"))
}
