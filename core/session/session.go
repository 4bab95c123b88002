package session

import (
	"encoding/json"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side key/value bag identified by an opaque id.
// It is safe for concurrent use; the manager and request handlers may
// touch it at the same time.
type Session struct {
	ID string

	mu         sync.RWMutex
	data       map[string]any
	expiresAt  time.Time
	createdAt  time.Time
	updatedAt  time.Time
	isModified bool
}

// New creates a fresh session with a random id expiring after ttl.
// The session is marked as modified and ready to be saved.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		data:       make(map[string]any),
		expiresAt:  now.Add(ttl),
		createdAt:  now,
		updatedAt:  now,
		isModified: true,
	}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
	s.updatedAt = time.Now()
	s.isModified = true
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return
	}
	delete(s.data, key)
	s.updatedAt = time.Now()
	s.isModified = true
}

// Data returns a copy of the stored values.
func (s *Session) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// ExpiresAt returns the current expiration time.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}

// IsModified returns true if the session has been modified and needs saving.
func (s *Session) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isModified
}

// Touch extends the session expiration if the touch interval has elapsed.
func (s *Session) Touch(ttl, touchInterval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.updatedAt) >= touchInterval {
		now := time.Now()
		s.expiresAt = now.Add(ttl)
		s.updatedAt = now
		s.isModified = true
	}
}

func (s *Session) markSaved() {
	s.mu.Lock()
	s.isModified = false
	s.mu.Unlock()
}

type record struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// MarshalJSON encodes the session for storage backends.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(record{
		ID:        s.ID,
		Data:      s.data,
		ExpiresAt: s.expiresAt,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	})
}

// UnmarshalJSON decodes a session produced by MarshalJSON.
func (s *Session) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ID = r.ID
	s.data = r.Data
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.expiresAt = r.ExpiresAt
	s.createdAt = r.CreatedAt
	s.updatedAt = r.UpdatedAt
	s.isModified = false
	return nil
}
