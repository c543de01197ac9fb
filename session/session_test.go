package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgecode/forge/llm"
)

func TestNew_SetsIDTitleAndTimestamps(t *testing.T) {
	s := New("s1", "refactor auth")
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "refactor auth", s.Title)
	assert.False(t, s.Created.IsZero())
	assert.Equal(t, s.Created, s.Updated)
}

func TestAppendMessage_IncrementsTurnCountAndBumpsUpdated(t *testing.T) {
	s := New("s1", "t")
	before := s.Updated
	s.AppendMessage(llm.Message{Role: "user", Content: "hi"})

	assert.Len(t, s.Messages, 1)
	assert.Equal(t, 1, s.Tracker.TurnCount)
	assert.True(t, !s.Updated.Before(before))
}

func TestRecordOperation_BoundedAtMax(t *testing.T) {
	s := New("s1", "t")
	for i := 0; i < maxOperations+10; i++ {
		s.RecordOperation("op")
	}
	assert.Len(t, s.Tracker.Operations, maxOperations)
}

func TestMetaOf_ReflectsMessageCount(t *testing.T) {
	s := New("s1", "t")
	s.AppendMessage(llm.Message{Role: "user", Content: "a"})
	s.AppendMessage(llm.Message{Role: "assistant", Content: "b"})

	m := metaOf(s)
	assert.Equal(t, "s1", m.ID)
	assert.Equal(t, 2, m.MsgCount)
}
