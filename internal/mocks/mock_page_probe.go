package mocks

import (
	"context"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MockPageProbe implements domain.PageProbe interface for testing
type MockPageProbe struct {
	PageDataFunc func(ctx context.Context) (*domain.PageData, error)
}

// NewMockPageProbe creates a new MockPageProbe with default behaviors
func NewMockPageProbe() *MockPageProbe {
	return &MockPageProbe{}
}

// PageData reads the active page's selection, title and URL
func (m *MockPageProbe) PageData(ctx context.Context) (*domain.PageData, error) {
	if m.PageDataFunc != nil {
		return m.PageDataFunc(ctx)
	}
	// Default behavior: probe unavailable
	return nil, domain.ErrProbeUnavailable
}

// Compile-time interface compliance verification
var _ domain.PageProbe = (*MockPageProbe)(nil)
