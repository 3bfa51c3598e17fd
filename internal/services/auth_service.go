package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// AuthServiceImpl implements domain.AuthService. It is the only writer of the
// auth state, credential and session keys; other components treat those as
// read-only. Nothing is cached between calls — every operation re-reads the
// store, because a write from another context is not guaranteed visible here
// until the next read.
type AuthServiceImpl struct {
	store  domain.Store
	remote domain.RemoteClient
	audit  domain.AuditLogger
	config AuthConfig
}

type AuthConfig struct {
	// DefaultDomain completes bare handles during identifier normalization.
	DefaultDomain string
	// RetainCredentialsOnFailure keeps stored credentials after a
	// non-challenge login failure so the user is not forced to retype them.
	RetainCredentialsOnFailure bool
}

// NewAuthService creates a new auth service
func NewAuthService(store domain.Store, remote domain.RemoteClient, audit domain.AuditLogger, config AuthConfig) domain.AuthService {
	if config.DefaultDomain == "" {
		config.DefaultDomain = domain.DefaultBskyDomain
	}
	return &AuthServiceImpl{
		store:  store,
		remote: remote,
		audit:  audit,
		config: config,
	}
}

// NormalizeIdentifier canonicalizes a handle or email for the login call: a
// leading "@" is stripped, any other "@" is a domain separator and becomes
// ".", and a bare handle gets the default domain appended.
func NormalizeIdentifier(identifier, defaultDomain string) string {
	id := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if strings.Contains(id, "@") {
		id = strings.ReplaceAll(id, "@", ".")
	}
	if !strings.Contains(id, ".") {
		id = id + "." + defaultDomain
	}
	return id
}

// State implements domain.AuthService. A stored session wins over whatever
// state value was persisted; the session's presence is the source of truth.
func (s *AuthServiceImpl) State(ctx context.Context) (domain.AuthState, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return domain.AuthStateUnauthenticated, err
	}
	if session != nil {
		return domain.AuthStateAuthenticated, nil
	}

	raw, err := s.store.Get(ctx, domain.KeyAuthState)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.AuthStateUnauthenticated, nil
		}
		return domain.AuthStateUnauthenticated, err
	}

	switch state := domain.AuthState(raw); state {
	case domain.AuthStateUnauthenticated, domain.AuthStateAwaitingSecondFactor, domain.AuthStateAuthenticated:
		return state, nil
	default:
		return domain.AuthStateUnauthenticated, nil
	}
}

// Credentials implements domain.AuthService. Credentials are never reported
// while a session exists, even if stale values linger in the store.
func (s *AuthServiceImpl) Credentials(ctx context.Context) (*domain.Credentials, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return nil, nil
	}

	identifier, err := s.store.Get(ctx, domain.KeyIdentifier)
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return nil, err
	}
	password, err := s.store.Get(ctx, domain.KeyPassword)
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return nil, err
	}

	if identifier == "" && password == "" {
		return nil, nil
	}
	return &domain.Credentials{Identifier: identifier, Password: password}, nil
}

// SubmitCredentials implements domain.AuthService
func (s *AuthServiceImpl) SubmitCredentials(ctx context.Context, identifier, password, secondFactorToken string) (*domain.Session, error) {
	id := NormalizeIdentifier(identifier, s.config.DefaultDomain)

	// Persist before the remote call: the UI may be torn down mid-login and
	// the user should not have to retype on reopen.
	if err := s.saveCredentials(ctx, id, password); err != nil {
		return nil, err
	}

	session, err := s.remote.Login(ctx, id, password, secondFactorToken)
	if err != nil {
		return nil, s.handleLoginFailure(ctx, id, err)
	}

	// Order matters for the mutual-exclusivity invariant: credentials go
	// before the session lands.
	if err := s.purgeCredentials(ctx); err != nil {
		return nil, err
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateAuthenticated)); err != nil {
		return nil, err
	}
	if err := s.store.Remove(ctx, domain.KeySecondFactorPending); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent).WithIdentifier(id))
	return session, nil
}

func (s *AuthServiceImpl) handleLoginFailure(ctx context.Context, identifier string, loginErr error) error {
	if errors.Is(loginErr, domain.ErrSecondFactorRequired) {
		// Not really a failure: the service has emailed a code and wants
		// identifier, password and token resubmitted together. Credentials
		// must therefore survive this transition.
		if err := s.store.Set(ctx, domain.KeySecondFactorPending, "true"); err != nil {
			return err
		}
		if err := s.store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateAwaitingSecondFactor)); err != nil {
			return err
		}
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.SecondFactorEvent).WithIdentifier(identifier))
		return loginErr
	}

	if err := s.store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateUnauthenticated)); err != nil {
		return err
	}
	if !s.config.RetainCredentialsOnFailure {
		if err := s.purgeCredentials(ctx); err != nil {
			return err
		}
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent).WithIdentifier(identifier).WithError(loginErr))
	return loginErr
}

// Session implements domain.AuthService. Returns nil when no session is stored.
func (s *AuthServiceImpl) Session(ctx context.Context) (*domain.Session, error) {
	raw, err := s.store.Get(ctx, domain.KeyClientSession)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// SecondFactorPending implements domain.AuthService
func (s *AuthServiceImpl) SecondFactorPending(ctx context.Context) (bool, error) {
	raw, err := s.store.Get(ctx, domain.KeySecondFactorPending)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return raw == "true", nil
}

// CancelSecondFactor implements domain.AuthService. The "back" action on the
// code-entry step: the challenge is abandoned but credentials stay editable.
func (s *AuthServiceImpl) CancelSecondFactor(ctx context.Context) error {
	if err := s.store.Remove(ctx, domain.KeySecondFactorPending); err != nil {
		return err
	}
	if !s.config.RetainCredentialsOnFailure {
		if err := s.purgeCredentials(ctx); err != nil {
			return err
		}
	}
	return s.store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateUnauthenticated))
}

// Logout implements domain.AuthService. Idempotent: repeating it leaves the
// same absent-session, unauthenticated state behind.
func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, domain.KeyClientSession); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, domain.KeySecondFactorPending); err != nil {
		return err
	}
	if err := s.purgeCredentials(ctx); err != nil {
		return err
	}
	if err := s.store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateUnauthenticated)); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLogoutEvent))
	return nil
}

func (s *AuthServiceImpl) saveCredentials(ctx context.Context, identifier, password string) error {
	if err := s.store.Set(ctx, domain.KeyIdentifier, identifier); err != nil {
		return err
	}
	return s.store.Set(ctx, domain.KeyPassword, password)
}

func (s *AuthServiceImpl) purgeCredentials(ctx context.Context) error {
	if err := s.store.Remove(ctx, domain.KeyIdentifier); err != nil {
		return err
	}
	return s.store.Remove(ctx, domain.KeyPassword)
}

func (s *AuthServiceImpl) saveSession(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.store.Set(ctx, domain.KeyClientSession, string(data))
}
