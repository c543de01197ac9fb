package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter estimates token counts client-side, exposed through
// Client.CountTokens; the Agent Loop's token budget uses the provider's
// reported usage instead. cl100k_base is the closest-fit
// encoding for OpenAI-compatible chat models generally, including most
// models reachable through an OpenRouter-style gateway.
type tokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &tokenCounter{enc: nil}
	}
	return &tokenCounter{enc: enc}
}

// Count returns the token count for text, falling back to a length/4
// character heuristic if the encoder failed to load.
func (c *tokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return len(text) / 4
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// CountMessages sums the token cost of every message's content plus a small
// fixed overhead per message for role/formatting tokens, the way OpenAI's
// own counting guidance describes.
func (c *tokenCounter) CountMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += 4 // role + separators
		total += c.Count(m.Content)
		for _, tc := range m.ToolCalls {
			total += c.Count(tc.Name) + c.Count(tc.RawArgs)
		}
	}
	return total
}
