package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore keeps one JSON file per session under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	// Ids become file names, so only accept what the manager generates.
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrInvalidID
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// GetByID reads and decodes the session file for id.
func (s *FileStore) GetByID(_ context.Context, id string) (*Session, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, ErrNotFound
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// Save writes the session atomically via a temp file and rename.
func (s *FileStore) Save(_ context.Context, sess *Session) error {
	p, err := s.path(sess.ID)
	if err != nil {
		return err
	}
	raw, err := sess.MarshalJSON()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, sess.ID+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes the session file for id.
func (s *FileStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return ErrNotFound
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// DeleteExpired scans the directory and removes expired or unreadable sessions.
func (s *FileStore) DeleteExpired(ctx context.Context) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sess, err := s.GetByID(ctx, strings.TrimSuffix(name, ".json"))
		if err == nil && !sess.IsExpired() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			n++
		}
	}
	return n, nil
}
