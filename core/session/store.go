package session

import (
	"context"
)

// Store defines the persistence interface for session management.
// Implementations must handle concurrent access safely.
type Store interface {
	// GetByID returns ErrNotFound when no session is stored under id.
	GetByID(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes all expired sessions and returns the count of deleted sessions.
	DeleteExpired(ctx context.Context) (int64, error)
}
