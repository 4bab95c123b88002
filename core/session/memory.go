package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Useful for tests and
// single-instance deployments where losing sessions on restart is fine.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// GetByID returns a decoded copy of the stored session.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	raw, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(raw)
}

// Save stores an encoded snapshot of sess.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	raw, err := sess.MarshalJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = raw
	s.mu.Unlock()
	return nil
}

// Delete removes the session stored under id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes every expired session.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, raw := range s.sessions {
		sess, err := decode(raw)
		if err != nil || sess.IsExpired() {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func decode(raw []byte) (*Session, error) {
	sess := &Session{}
	if err := sess.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return sess, nil
}
