package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsage_AddAccumulates(t *testing.T) {
	u := &Usage{}
	u.Add(10, 5)
	u.Add(3, 1)

	snap := u.Snapshot()
	assert.Equal(t, 13, snap.PromptTokens)
	assert.Equal(t, 6, snap.CompletionTokens)
	assert.Equal(t, 19, snap.TotalTokens)
	assert.Equal(t, 2, snap.Requests)
}

func TestUsage_ConcurrentAddIsRaceFree(t *testing.T) {
	u := &Usage{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.Add(1, 1)
		}()
	}
	wg.Wait()

	snap := u.Snapshot()
	assert.Equal(t, 50, snap.Requests)
}
