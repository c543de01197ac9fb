package session

import "context"

// Store is the persistence contract the Session Store exposes to the rest
// of the core: create, save, resume, list, and delete session documents.
// FileStore is the default (atomic JSON files); SQLStore is an optional
// SQLite-backed alternative for deployments that want queryable history.
type Store interface {
	Create(ctx context.Context, title string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Resume(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context) ([]Meta, error)
	Delete(ctx context.Context, id string) error
}
