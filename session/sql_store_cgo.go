//go:build cgo_sqlite

package session

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLStoreCGO opens a SQLite database via mattn/go-sqlite3 instead of
// the default pure-Go modernc.org/sqlite driver. Only built when the
// cgo_sqlite tag is set, for deployments that already link cgo and want
// mattn's more mature SQLite feature coverage (e.g. online backup).
func NewSQLStoreCGO(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite3 database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSessionsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: init schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}
