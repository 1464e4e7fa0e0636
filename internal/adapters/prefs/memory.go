package prefs

import (
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// MemoryStore is a PreferenceStore for tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]bool
	// FailWrites makes SetBool return this error when set.
	FailWrites error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]bool)}
}

// Bool returns the value stored for key.
func (s *MemoryStore) Bool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// SetBool stores value.
func (s *MemoryStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.values[key] = value
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

var _ ports.PreferenceStore = (*MemoryStore)(nil)
