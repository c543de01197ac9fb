package llm

import "sync"

// Usage accumulates token counts across a session's requests. Thread-safe,
// since the Agent Loop and any concurrent background tool calls that also
// consult the model may update it from different goroutines.
type Usage struct {
	mu               sync.Mutex
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Requests         int
}

// Add folds one response's usage into the running total.
func (u *Usage) Add(prompt, completion int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.PromptTokens += prompt
	u.CompletionTokens += completion
	u.TotalTokens += prompt + completion
	u.Requests++
}

// Snapshot returns a copy safe to read without holding the lock.
func (u *Usage) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Requests:         u.Requests,
	}
}
