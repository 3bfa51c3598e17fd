package mocks

import (
	"context"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MockStore implements domain.Store interface for testing failure paths.
// Happy-path tests use storage.NewMemoryStore instead.
type MockStore struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string) error
	RemoveFunc func(ctx context.Context, key string) error
}

// NewMockStore creates a new MockStore with default behaviors
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Get reads a value by key
func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	// Default behavior: not found
	return "", domain.ErrKeyNotFound
}

// Set writes a value by key
func (m *MockStore) Set(ctx context.Context, key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	// Default behavior: success
	return nil
}

// Remove deletes a key
func (m *MockStore) Remove(ctx context.Context, key string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, key)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.Store = (*MockStore)(nil)
