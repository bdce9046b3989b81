package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FileStore persists the session as a JSON file on disk. It is the default
// backend; the file survives process restarts the way browser storage
// survives a page reload.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed session store rooted at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the session file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the session to disk, replacing any previous value. The file is
// written via a temporary sibling and renamed so a crash mid-write cannot
// leave a torn session behind.
func (s *FileStore) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session filestore: session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session filestore: create dir failed: %w", err)
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session filestore: marshal failed: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("session filestore: write failed: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session filestore: rename failed: %w", err)
	}

	log.Debugf("session saved to %s", s.path)
	return nil
}

// Load reads the session from disk. A missing file means no session is
// stored and returns nil without error.
func (s *FileStore) Load(_ context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("session filestore: read failed: %w", err)
	}

	var sess Session
	if err = json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session filestore: parse failed: %w", err)
	}
	return &sess, nil
}

// Clear removes the session file. Clearing an already-empty store is not an
// error.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session filestore: remove failed: %w", err)
	}
	return nil
}
