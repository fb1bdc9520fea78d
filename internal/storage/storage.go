package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Backend is the key-value persistence layer the bundle store writes through.
// A single Set call is the unit of atomicity: readers see either the previous
// value or the new one, never a mix.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Locker is implemented by backends that can exclude other processes for
// the duration of a read-modify-write.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// FileBackend stores each key as a JSON file inside a directory.
type FileBackend struct {
	dir  string
	lock *flock.Flock
}

// NewFileBackend creates a FileBackend rooted at dir.
// The directory is created on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".bundles.lock")),
	}
}

// Dir returns the storage directory.
func (s *FileBackend) Dir() string {
	return s.dir
}

// Path returns the file that holds key.
func (s *FileBackend) Path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Get reads the file for key. A missing file means the key is absent.
func (s *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set writes value to a temp file and renames it over the file for key, so a
// crash mid-write leaves the previous content intact.
func (s *FileBackend) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+sanitizeKey(key)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return os.Rename(tmpName, s.Path(key))
}

// Lock takes an advisory file lock shared by every process using dir.
func (s *FileBackend) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}
	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire storage lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("storage is locked by another process (lock: %s)", s.lock.Path())
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// Close implements Backend.
func (s *FileBackend) Close() error {
	return nil
}

// sanitizeKey keeps keys usable as file names.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, key)
}
