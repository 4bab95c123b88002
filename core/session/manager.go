package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/chainmux/core/logger"
)

// Manager handles session lifecycle including creation, retrieval, and expiration.
// It keeps no sessions of its own: the store is the source of truth, and the
// session a request works on travels in its context (see NewContext).
type Manager struct {
	store  Store
	config *Config
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOptions applies config options to the manager.
func WithOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		for _, opt := range opts {
			opt(m.config)
		}
	}
}

// NewManager creates a session manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		config: defaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validate returns the session stored under id. The boolean is false when
// the id is unknown or the session expired; expired sessions are removed.
// A session already carried by ctx under the same id is returned as is.
func (m *Manager) Validate(ctx context.Context, id string) (*Session, bool, error) {
	if id == "" {
		return nil, false, nil
	}

	if sess, ok := FromContext(ctx); ok && sess.ID == id && !sess.IsExpired() {
		return sess, true, nil
	}

	sess, err := m.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if sess.IsExpired() {
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, false, errors.Join(ErrDeleteSession, err)
		}
		return nil, false, nil
	}

	return sess, true, nil
}

// Start returns the valid session for id, or starts a new one with a fresh
// id when id is empty, unknown or expired. Callers compare the returned ID
// with the one they passed to learn whether a cookie must be issued, and
// attach the session to the request context so Persist can find it.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	sess, ok, err := m.Validate(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return sess, nil
	}

	return New(m.config.TTL), nil
}

// Persist writes the session carried by ctx back to the store when its id
// is id. With keep-alive enabled the expiration is extended first.
// Unmodified sessions are not written.
func (m *Manager) Persist(ctx context.Context, id string) error {
	sess, ok := FromContext(ctx)
	if !ok || sess.ID != id {
		return ErrNotStarted
	}

	if sess.IsExpired() {
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		return ErrExpired
	}

	if m.config.KeepAlive {
		sess.Touch(m.config.TTL, m.config.TouchInterval)
	}

	if !sess.IsModified() {
		return nil
	}
	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.WarnContext(ctx, "failed to persist session",
			logger.Component("session"),
			logger.Error(err),
		)
		return errors.Join(ErrSaveSession, err)
	}
	sess.markSaved()
	return nil
}

// Destroy removes the session from the store.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Join(ErrDeleteSession, err)
	}
	return nil
}

// CleanupExpired removes expired sessions from the store. Should be called
// periodically.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

// Run calls CleanupExpired every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := m.CleanupExpired(ctx); err != nil {
				m.logger.WarnContext(ctx, "session cleanup failed", logger.Component("session"), logger.Error(err))
			} else if n > 0 {
				m.logger.DebugContext(ctx, "expired sessions removed", logger.Component("session"), slog.Int64("count", n))
			}
		}
	}
}

// TTL returns the session time-to-live duration.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}
