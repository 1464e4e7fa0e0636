// Package prefs implements ports.PreferenceStore.
package prefs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/devsetup/internal/adapters/filesystem"
	"github.com/felixgeelhaar/devsetup/internal/ports"
)

const section = "wizard"

// DefaultPath returns ~/.devsetup/prefs.ini.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".devsetup", "prefs.ini"), nil
}

// INIStore keeps preferences in an INI file. Every SetBool rewrites the
// file so a crash after a completed task never loses the marker.
type INIStore struct {
	mu     sync.Mutex
	path   string
	file   *ini.File
	fs     *filesystem.RealFileSystem
	closed bool
}

// OpenINI loads path, creating an empty store when the file is missing.
func OpenINI(path string) (*INIStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating preferences directory: %w", err)
	}

	var (
		file *ini.File
		err  error
	)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		file = ini.Empty()
	} else {
		file, err = ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading preferences %s: %w", path, err)
		}
	}

	return &INIStore{path: path, file: file, fs: filesystem.NewRealFileSystem()}, nil
}

// Path returns the backing file.
func (s *INIStore) Path() string {
	return s.path
}

// Bool returns the value stored for key.
func (s *INIStore) Bool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return false
	}
	return sec.Key(key).MustBool(false)
}

// SetBool stores value and flushes the file.
func (s *INIStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("preference store %s is closed", s.path)
	}
	s.file.Section(section).Key(key).SetValue(strconv.FormatBool(value))
	return s.flush()
}

// Close flushes and releases the store. Later writes fail.
func (s *INIStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.flush()
}

func (s *INIStore) flush() error {
	var buf bytes.Buffer
	if _, err := s.file.WriteTo(&buf); err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := s.fs.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing preferences %s: %w", s.path, err)
	}
	return nil
}

var _ ports.PreferenceStore = (*INIStore)(nil)
