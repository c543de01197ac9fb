// Package undo captures pre-operation file state and replays it to restore
// a session's filesystem to an earlier point, mirroring the capture/
// commit/discard/undo/redo protocol the tool runtime drives around every
// mutating tool call.
package undo

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// DefaultMaxSnapshotBytes bounds how large a file CaptureBefore will
// snapshot; larger files proceed unsnapshotted (operation not undoable).
const DefaultMaxSnapshotBytes = 5 * 1024 * 1024

// FileSnapshot is the captured pre-mutation state of a single file.
type FileSnapshot struct {
	Path     string `json:"path"`
	Existed  bool   `json:"existed"`
	Content  []byte `json:"content"`
	Encoding string `json:"encoding"` // "utf-8" or "base64"
	IsBinary bool   `json:"is_binary"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// captureSnapshot reads path's current state. maxBytes <= 0 uses
// DefaultMaxSnapshotBytes. Returns (nil, nil) when the file exceeds the
// size cap — the caller proceeds with the mutation but cannot undo it.
func captureSnapshot(path string, maxBytes int64) (*FileSnapshot, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSnapshotBytes
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &FileSnapshot{Path: path, Existed: false, Encoding: "utf-8"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("snapshot %s: is a directory", path)
	}
	if info.Size() > maxBytes {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	binary := looksBinary(content)
	snap := &FileSnapshot{
		Path:     path,
		Existed:  true,
		IsBinary: binary,
		Size:     int64(len(content)),
		Checksum: checksum(content),
	}
	if binary {
		snap.Encoding = "base64"
		snap.Content = []byte(base64.StdEncoding.EncodeToString(content))
	} else {
		snap.Encoding = "utf-8"
		snap.Content = content
	}
	return snap, nil
}

// restore writes the snapshotted state back to disk: deletes the file if
// it didn't previously exist, otherwise rewrites its original content.
func (s *FileSnapshot) restore() error {
	if !s.Existed {
		if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", s.Path, err)
		}
		return nil
	}

	raw := s.Content
	if s.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(string(s.Content))
		if err != nil {
			return fmt.Errorf("decode snapshot for %s: %w", s.Path, err)
		}
		raw = decoded
	}
	if err := os.WriteFile(s.Path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

func looksBinary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(content[:n], 0) != -1
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// UndoEntry is an atomic, reversible group of file snapshots produced by a
// single tool invocation.
type UndoEntry struct {
	ID          string         `json:"id"`
	ToolName    string         `json:"tool_name"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Snapshots   []FileSnapshot `json:"snapshots"`
	Command     string         `json:"command,omitempty"`
}

// undo restores every snapshot in the entry and returns the forward
// snapshots (the state immediately before the restore) so the caller can
// push them onto a redo stack.
func (e *UndoEntry) undo() ([]FileSnapshot, error) {
	forward := make([]FileSnapshot, 0, len(e.Snapshots))
	for _, snap := range e.Snapshots {
		fwd, err := captureSnapshot(snap.Path, 0)
		if err != nil {
			return nil, fmt.Errorf("capture forward snapshot for %s: %w", snap.Path, err)
		}
		if fwd == nil {
			fwd = &FileSnapshot{Path: snap.Path, Existed: true, Encoding: "utf-8"}
		}
		forward = append(forward, *fwd)
	}
	for i := range e.Snapshots {
		if err := e.Snapshots[i].restore(); err != nil {
			return nil, err
		}
	}
	return forward, nil
}
