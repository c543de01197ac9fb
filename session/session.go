// Package session implements the Session Store (C9): conversation history
// and tracker state persisted as JSON documents under a per-user data
// directory, with atomic writes and crash-safe resume.
package session

import (
	"time"

	"github.com/forgecode/forge/llm"
)

// maxOperations bounds Tracker.Operations so a long-lived session's
// recent-operations log doesn't grow without bound.
const maxOperations = 50

// Tracker holds the lightweight project-awareness state the agent loop
// folds into its system prompt (see agent.TaskContext): the file currently
// being worked on, entities the conversation has touched, and a rolling
// log of recent operations.
type Tracker struct {
	ActiveFile string   `json:"active_file,omitempty"`
	Entities   []string `json:"entities,omitempty"`
	Operations []string `json:"operations,omitempty"`
	TurnCount  int      `json:"turn_count"`
}

// Session is the in-memory and on-disk unit of persisted conversation
// state: an ordered message history plus metadata and tracker state.
type Session struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Created time.Time     `json:"created"`
	Updated time.Time     `json:"updated"`
	Messages []llm.Message `json:"messages"`
	Tracker Tracker        `json:"tracker"`
}

// New creates a fresh session with the given id and title, timestamped now.
func New(id, title string) *Session {
	now := time.Now()
	return &Session{
		ID:      id,
		Title:   title,
		Created: now,
		Updated: now,
	}
}

// AppendMessage records a turn and bumps the turn count and updated time.
func (s *Session) AppendMessage(m llm.Message) {
	s.Messages = append(s.Messages, m)
	s.Tracker.TurnCount++
	s.Updated = time.Now()
}

// RecordOperation appends a free-text description of a recent action (a
// tool call, a file edit) to the tracker's rolling log, evicting the
// oldest entry once maxOperations is exceeded.
func (s *Session) RecordOperation(op string) {
	s.Tracker.Operations = append(s.Tracker.Operations, op)
	if len(s.Tracker.Operations) > maxOperations {
		s.Tracker.Operations = s.Tracker.Operations[len(s.Tracker.Operations)-maxOperations:]
	}
	s.Updated = time.Now()
}

// Meta is the summary a listing returns without paying for the full
// message history.
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	MsgCount  int       `json:"msg_count"`
}

func metaOf(s *Session) Meta {
	return Meta{ID: s.ID, Title: s.Title, Created: s.Created, Updated: s.Updated, MsgCount: len(s.Messages)}
}
