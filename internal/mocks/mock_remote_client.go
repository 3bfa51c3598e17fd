package mocks

import (
	"context"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MockRemoteClient implements domain.RemoteClient interface for testing
type MockRemoteClient struct {
	LoginFunc         func(ctx context.Context, identifier, password, secondFactorToken string) (*domain.Session, error)
	ResumeSessionFunc func(ctx context.Context, session *domain.Session) (*domain.Session, error)
	PostFunc          func(ctx context.Context, session *domain.Session, text string) error

	LoginCalls int
	PostCalls  int
}

// NewMockRemoteClient creates a new MockRemoteClient with default behaviors
func NewMockRemoteClient() *MockRemoteClient {
	return &MockRemoteClient{}
}

// Login performs a remote login
func (m *MockRemoteClient) Login(ctx context.Context, identifier, password, secondFactorToken string) (*domain.Session, error) {
	m.LoginCalls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identifier, password, secondFactorToken)
	}
	// Default behavior: success with a canned session
	return &domain.Session{
		DID:        "did:plc:test",
		Handle:     identifier,
		AccessJWT:  "access-token",
		RefreshJWT: "refresh-token",
	}, nil
}

// ResumeSession validates a stored session
func (m *MockRemoteClient) ResumeSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if m.ResumeSessionFunc != nil {
		return m.ResumeSessionFunc(ctx, session)
	}
	// Default behavior: session is still valid as-is
	return session, nil
}

// Post publishes text through the remote service
func (m *MockRemoteClient) Post(ctx context.Context, session *domain.Session, text string) error {
	m.PostCalls++
	if m.PostFunc != nil {
		return m.PostFunc(ctx, session, text)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.RemoteClient = (*MockRemoteClient)(nil)
