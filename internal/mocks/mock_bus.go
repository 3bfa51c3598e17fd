package mocks

import (
	"context"
	"encoding/json"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MockBus implements domain.Bus interface for testing
type MockBus struct {
	SendFunc func(ctx context.Context, name string, body any) (json.RawMessage, error)

	SendCalls []string
}

// NewMockBus creates a new MockBus with default behaviors
func NewMockBus() *MockBus {
	return &MockBus{}
}

// Send dispatches a named message
func (m *MockBus) Send(ctx context.Context, name string, body any) (json.RawMessage, error) {
	m.SendCalls = append(m.SendCalls, name)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, name, body)
	}
	// Default behavior: counterpart unavailable
	return nil, domain.ErrProbeUnavailable
}

// Compile-time interface compliance verification
var _ domain.Bus = (*MockBus)(nil)
