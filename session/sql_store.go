package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createSessionsTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    messages   TEXT NOT NULL,
    tracker    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// SQLStore is an alternative to FileStore for deployments that want
// queryable session history; it trades the JSON-file backup/resume
// contract for transactional SQL writes, at the cost of no longer
// matching the exact on-disk layout §4.9 describes. Schema is a single
// sessions table: one row per session, messages and tracker stored as
// serialized JSON columns (mirroring FileStore's document shape rather
// than normalizing into a messages table, since nothing here needs to
// query individual messages).
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) a SQLite database at path using the
// pure-Go modernc.org/sqlite driver and ensures the schema exists.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: avoid concurrent-writer lock contention

	if _, err := db.Exec(createSessionsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: init schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Create(ctx context.Context, title string) (*Session, error) {
	sess := New(generateID(), title)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) Save(ctx context.Context, sess *Session) error {
	msgJSON, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("session: marshal messages for %s: %w", sess.ID, err)
	}
	trackerJSON, err := json.Marshal(sess.Tracker)
	if err != nil {
		return fmt.Errorf("session: marshal tracker for %s: %w", sess.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at, messages, tracker)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			messages = excluded.messages,
			tracker = excluded.tracker
	`, sess.ID, sess.Title, sess.Created, sess.Updated, string(msgJSON), string(trackerJSON))
	if err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLStore) Resume(ctx context.Context, id string) (*Session, error) {
	var (
		title               string
		created, updated    time.Time
		msgJSON, trackerJSON string
	)
	row := s.db.QueryRowContext(ctx, `SELECT title, created_at, updated_at, messages, tracker FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&title, &created, &updated, &msgJSON, &trackerJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFound{ID: id}
		}
		return nil, fmt.Errorf("session: query %s: %w", id, err)
	}

	sess := &Session{ID: id, Title: title, Created: created, Updated: updated}
	if err := json.Unmarshal([]byte(msgJSON), &sess.Messages); err != nil {
		return nil, &Corrupted{ID: id, LiveErr: err}
	}
	if err := json.Unmarshal([]byte(trackerJSON), &sess.Tracker); err != nil {
		return nil, &Corrupted{ID: id, LiveErr: err}
	}
	return sess, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at, updated_at, messages FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var (
			id, title        string
			created, updated time.Time
			msgJSON          string
		)
		if err := rows.Scan(&id, &title, &created, &updated, &msgJSON); err != nil {
			return nil, fmt.Errorf("session: scan row: %w", err)
		}
		var msgs []json.RawMessage
		json.Unmarshal([]byte(msgJSON), &msgs)
		metas = append(metas, Meta{ID: id, Title: title, Created: created, Updated: updated, MsgCount: len(msgs)})
	}
	return metas, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	if n == 0 {
		return &NotFound{ID: id}
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
