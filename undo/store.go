package undo

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the process-singleton Undo Store (C2): one History per session,
// with a pending capture group accumulating until commit or discard.
// Mirrors checkpoint.Manager wrapping a storage layer behind
// a small set of session-scoped operations.
type Store struct {
	registry    *registry
	maxSnapshot int64

	mu      sync.Mutex
	pending map[string][]FileSnapshot // session id -> accumulated captures
}

// NewStore builds an Undo Store. maxHistory bounds entries retained per
// session (0 uses DefaultMaxHistory); maxSnapshotBytes bounds snapshot size
// (0 uses DefaultMaxSnapshotBytes).
func NewStore(maxHistory int, maxSnapshotBytes int64) *Store {
	if maxSnapshotBytes <= 0 {
		maxSnapshotBytes = DefaultMaxSnapshotBytes
	}
	return &Store{
		registry:    newRegistry(maxHistory),
		maxSnapshot: maxSnapshotBytes,
		pending:     make(map[string][]FileSnapshot),
	}
}

// CaptureBefore snapshots path's current state and accumulates it into the
// session's pending group. Multiple captures within one pending group
// accumulate; capturing the same path twice keeps only the first (the
// earliest pre-mutation state is what undo needs to restore).
func (s *Store) CaptureBefore(sessionID, path string) error {
	snap, err := captureSnapshot(path, s.maxSnapshot)
	if err != nil {
		return fmt.Errorf("undo: capture %s: %w", path, err)
	}
	if snap == nil {
		slog.Warn("undo: file exceeds snapshot size cap, operation will not be undoable", "path", path)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.pending[sessionID] {
		if existing.Path == path {
			return nil
		}
	}
	s.pending[sessionID] = append(s.pending[sessionID], *snap)
	return nil
}

// Commit seals the session's pending captures into a new UndoEntry, pushes
// it onto the session's history, and clears the pending group. Returns the
// committed entry's id so callers (the workflow step executor) can record
// it against the step's rollback checkpoint.
func (s *Store) Commit(sessionID, toolName, description, command string) (string, error) {
	s.mu.Lock()
	snaps := s.pending[sessionID]
	delete(s.pending, sessionID)
	s.mu.Unlock()

	if len(snaps) == 0 {
		return "", nil
	}

	entry := UndoEntry{
		ID:          uuid.NewString(),
		ToolName:    toolName,
		Description: description,
		Timestamp:   time.Now(),
		Snapshots:   snaps,
		Command:     command,
	}

	h := s.registry.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	h.push(entry)
	return entry.ID, nil
}

// DiscardPending drops the session's accumulated captures without
// committing them, used when the owning tool call fails.
func (s *Store) DiscardPending(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
}

// Undo pops the most recent UndoEntry for sessionID, restores its
// snapshots, and pushes the pre-restore ("forward") state onto the redo
// stack. Returns the undone entry.
func (s *Store) Undo(sessionID string) (*UndoEntry, error) {
	h := s.registry.get(sessionID)

	s.mu.Lock()
	entry, ok := h.pop()
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("undo: no entries to undo for session %s", sessionID)
	}

	forward, err := entry.undo()
	if err != nil {
		// Restore failed partway; re-push so the entry isn't silently lost.
		s.mu.Lock()
		h.entries = append(h.entries, entry)
		s.mu.Unlock()
		return nil, fmt.Errorf("undo: restore failed: %w", err)
	}

	redoEntry := entry
	redoEntry.Snapshots = forward
	s.mu.Lock()
	h.pushRedo(redoEntry)
	s.mu.Unlock()

	return &entry, nil
}

// Redo pops the most recently undone entry, restores its forward snapshots,
// and pushes the resulting state back as a new undo entry.
func (s *Store) Redo(sessionID string) (*UndoEntry, error) {
	h := s.registry.get(sessionID)

	s.mu.Lock()
	entry, ok := h.popRedo()
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("undo: no entries to redo for session %s", sessionID)
	}

	backward, err := entry.undo()
	if err != nil {
		s.mu.Lock()
		h.redo = append(h.redo, entry)
		s.mu.Unlock()
		return nil, fmt.Errorf("redo: restore failed: %w", err)
	}

	undoEntry := entry
	undoEntry.Snapshots = backward
	s.mu.Lock()
	h.entries = append(h.entries, undoEntry)
	s.mu.Unlock()

	return &entry, nil
}

// History returns the session's undo history, creating an empty one if
// none exists yet.
func (s *Store) History(sessionID string) *History {
	return s.registry.get(sessionID)
}

// Reset clears all session histories and pending groups. Test-only.
func (s *Store) Reset() {
	s.registry.reset()
	s.mu.Lock()
	s.pending = make(map[string][]FileSnapshot)
	s.mu.Unlock()
}
