package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps values in a map. It is used in tests and counts writes
// so callers can assert that nothing was persisted.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string][]byte{}}
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	return slices.Clone(v), ok, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = slices.Clone(value)
	m.writes++
	return nil
}

// Writes returns how many times Set was called.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}
