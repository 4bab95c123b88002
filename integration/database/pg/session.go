package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/chainmux/core/session"
)

// DB is the subset of *pgxpool.Pool and pgx.Tx the session store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps sessions in a table of (id, data, expires_at).
type SessionStore struct {
	db    DB
	table string
	now   func() time.Time
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithTable sets the table name (default: "sessions").
func WithTable(name string) SessionStoreOption {
	return func(s *SessionStore) {
		if name != "" {
			s.table = name
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore creates a store over db.
func NewSessionStore(db DB, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{db: db, table: "sessions", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) conn(ctx context.Context) DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.db
}

func (s *SessionStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// Migrate creates the sessions table and its expiry index.
func (s *SessionStore) Migrate(ctx context.Context) error {
	t := s.ident()
	idx := pgx.Identifier{s.table + "_expires_at_idx"}.Sanitize()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + idx + ` ON ` + t + ` (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn(ctx).Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate session table: %w", err)
		}
	}
	return nil
}

// GetByID loads the session stored under id.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*session.Session, error) {
	var raw []byte
	err := s.conn(ctx).QueryRow(ctx, `SELECT data FROM `+s.ident()+` WHERE id = $1`, id).Scan(&raw)
	if IsNotFoundError(err) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	sess := &session.Session{}
	if err := sess.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save upserts sess.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	raw, err := sess.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx,
		`INSERT INTO `+s.ident()+` (id, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		sess.ID, raw, sess.ExpiresAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrSaveSession, err)
	}
	return nil
}

// Delete removes the session stored under id.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM `+s.ident()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeleteSession, err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM `+s.ident()+` WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", session.ErrDeleteSession, err)
	}
	return tag.RowsAffected(), nil
}
