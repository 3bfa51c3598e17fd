package storage

import (
	"context"
	"sync"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MemoryStore is an in-memory domain.Store. It backs tests and single-process
// runs where no Redis address is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements domain.Store
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return val, nil
}

// Set implements domain.Store
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements domain.Store
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Compile-time interface compliance verification
var _ domain.Store = (*MemoryStore)(nil)
