package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/chainmux/core/session"
)

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps each session as a JSON string under prefix+id with a
// TTL matching the session's expiry.
type SessionStore struct {
	client    redis.UniversalClient
	prefix    string
	scanBatch int64
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithKeyPrefix sets the key prefix (default: "session:").
func WithKeyPrefix(prefix string) SessionStoreOption {
	return func(s *SessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithScanBatchSize sets the SCAN count used by DeleteExpired.
func WithScanBatchSize(n int64) SessionStoreOption {
	return func(s *SessionStore) {
		if n > 0 {
			s.scanBatch = n
		}
	}
}

// NewSessionStore creates a store over client.
func NewSessionStore(client redis.UniversalClient, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{client: client, prefix: "session:", scanBatch: 1000}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

// GetByID loads the session stored under id.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	sess := &session.Session{}
	if err := sess.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes sess. Already expired sessions are deleted instead.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	ttl := time.Until(sess.ExpiresAt())
	if ttl <= 0 {
		if err := s.client.Del(ctx, s.key(sess.ID)).Err(); err != nil {
			return fmt.Errorf("%w: %w", session.ErrSaveSession, err)
		}
		return nil
	}
	raw, err := sess.MarshalJSON()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", session.ErrSaveSession, err)
	}
	return nil
}

// Delete removes the session stored under id.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeleteSession, err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired scans the prefix and removes entries that are expired or
// can't be decoded. Redis expires keys on its own, so this normally finds
// nothing.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, s.prefix+"*", s.scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("redis get session: %w", err)
		}
		sess := &session.Session{}
		if err := sess.UnmarshalJSON(raw); err == nil && !sess.IsExpired() {
			continue
		}
		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %w", session.ErrDeleteSession, err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan sessions: %w", err)
	}
	return removed, nil
}
