package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/domain"
)

// Store holds the current operator session and persists it to a local JSON
// file so a restart does not log the operator out. Reads are cheap; the file
// is only touched on Set and Clear.
type Store struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	cur *domain.Session
}

func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt session file means logging in again, not a dead service.
		logger.Warn("discarding unreadable session file", zap.String("path", path), zap.Error(err))
		return s, nil
	}
	if sess.Token != "" {
		s.cur = &sess
	}
	return s, nil
}

// Get returns the active session or domain.ErrNoSession.
func (s *Store) Get() (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return domain.Session{}, domain.ErrNoSession
	}
	return *s.cur, nil
}

// Token returns the current token, empty when logged out. Shaped for use as
// a gateway TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// Set replaces the session and persists it.
func (s *Store) Set(sess domain.Session) error {
	if sess.Token == "" {
		return errors.New("session: empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &sess
	return s.write(&sess)
}

// Clear logs the operator out and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

// write persists atomically via a temp file in the same directory.
func (s *Store) write(sess *domain.Session) error {
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}
