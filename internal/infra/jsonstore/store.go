// Package jsonstore provides a JSON file-based implementation of SessionRepository.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Store implements SessionRepository.
var _ domain.SessionRepository = (*Store)(nil)

// storeData represents the JSON file structure.
type storeData struct {
	Sessions []*domain.ComposerSession `json:"sessions"` // Oldest first
}

// Store implements domain.SessionRepository using a JSON file.
// It keeps at most limit sessions, dropping the oldest.
type Store struct {
	path     string
	lockPath string
	limit    int
}

// New creates a new Store for the given file path. A limit of zero or less keeps everything.
// The file does not need to exist; it will be created on first write.
func New(path string, limit int) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
		limit:    limit,
	}
}

// Save creates or updates a session. An updated session moves to the newest position.
func (s *Store) Save(session *domain.ComposerSession) error {
	return s.withLockWrite(func(data *storeData) error {
		data.Sessions = slices.DeleteFunc(data.Sessions, func(e *domain.ComposerSession) bool {
			return e.ID == session.ID
		})
		data.Sessions = append(data.Sessions, session)
		if s.limit > 0 && len(data.Sessions) > s.limit {
			data.Sessions = data.Sessions[len(data.Sessions)-s.limit:]
		}
		return nil
	})
}

// Get retrieves a session by ID. Returns nil if not found.
func (s *Store) Get(id string) (*domain.ComposerSession, error) {
	var found *domain.ComposerSession
	err := s.withLock(func(data *storeData) error {
		for _, e := range data.Sessions {
			if e.ID == id {
				found = e
			}
		}
		return nil
	})
	return found, err
}

// List returns sessions, newest first.
func (s *Store) List() ([]*domain.ComposerSession, error) {
	var sessions []*domain.ComposerSession
	err := s.withLock(func(data *storeData) error {
		sessions = slices.Clone(data.Sessions)
		slices.Reverse(sessions)
		return nil
	})
	return sessions, err
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	// Ensure lock file directory exists
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// read loads the store file. A missing file reads as an empty history.
func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &storeData{}, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
