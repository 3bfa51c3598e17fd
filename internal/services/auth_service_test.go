package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/boxabirds/post-to-bluesky/domain"
	"github.com/boxabirds/post-to-bluesky/internal/infrastructure/storage"
	"github.com/boxabirds/post-to-bluesky/internal/mocks"
)

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		expected   string
	}{
		{name: "bare handle", identifier: "alice", expected: "alice.bsky.social"},
		{name: "leading at stripped", identifier: "@alice", expected: "alice.bsky.social"},
		{name: "email rewritten", identifier: "alice@custom.net", expected: "alice.custom.net"},
		{name: "leading at plus email", identifier: "@dave@mail.com", expected: "dave.mail.com"},
		{name: "full handle untouched", identifier: "carol.bsky.social", expected: "carol.bsky.social"},
		{name: "bare domainless email", identifier: "erin@host", expected: "erin.host"},
		{name: "surrounding whitespace", identifier: "  bob  ", expected: "bob.bsky.social"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIdentifier(tt.identifier, "bsky.social")
			if got != tt.expected {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.identifier, got, tt.expected)
			}
		})
	}
}

func setupAuthService(t *testing.T, remote *mocks.MockRemoteClient, retain bool) (domain.AuthService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := NewAuthService(store, remote, mocks.NewMockAuditLogger(), AuthConfig{
		DefaultDomain:              "bsky.social",
		RetainCredentialsOnFailure: retain,
	})
	return svc, store
}

func keyPresent(t *testing.T, store domain.Store, key string) bool {
	t.Helper()
	_, err := store.Get(context.Background(), key)
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("unexpected store error for %q: %v", key, err)
	}
	return false
}

func TestAuthServiceImpl_SubmitCredentials_Success(t *testing.T) {
	ctx := context.Background()
	var gotIdentifier, gotToken string
	remote := mocks.NewMockRemoteClient()
	remote.LoginFunc = func(ctx context.Context, identifier, password, token string) (*domain.Session, error) {
		gotIdentifier, gotToken = identifier, token
		return &domain.Session{DID: "did:plc:abc", Handle: identifier, AccessJWT: "a", RefreshJWT: "r"}, nil
	}
	svc, store := setupAuthService(t, remote, false)

	session, err := svc.SubmitCredentials(ctx, "@alice", "hunter2", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil || session.DID != "did:plc:abc" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if gotIdentifier != "alice.bsky.social" {
		t.Errorf("expected normalized identifier, got %q", gotIdentifier)
	}
	if gotToken != "" {
		t.Errorf("expected no second factor token, got %q", gotToken)
	}

	state, err := svc.State(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != domain.AuthStateAuthenticated {
		t.Errorf("expected AUTHENTICATED, got %s", state)
	}

	// Credentials and session must never coexist in storage.
	if keyPresent(t, store, domain.KeyIdentifier) || keyPresent(t, store, domain.KeyPassword) {
		t.Error("credentials must be purged once a session exists")
	}
	if !keyPresent(t, store, domain.KeyClientSession) {
		t.Error("session must be persisted")
	}
	if keyPresent(t, store, domain.KeySecondFactorPending) {
		t.Error("pending flag must be cleared on success")
	}
}

func TestAuthServiceImpl_SubmitCredentials_SecondFactorChallenge(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewMockRemoteClient()
	remote.LoginFunc = func(ctx context.Context, identifier, password, token string) (*domain.Session, error) {
		return nil, domain.ClassifyRemote(domain.SecondFactorMarker + " you@example.com")
	}
	svc, store := setupAuthService(t, remote, false)

	_, err := svc.SubmitCredentials(ctx, "alice", "hunter2", "")
	if !errors.Is(err, domain.ErrSecondFactorRequired) {
		t.Fatalf("expected second factor error, got %v", err)
	}

	state, _ := svc.State(ctx)
	if state != domain.AuthStateAwaitingSecondFactor {
		t.Errorf("expected AWAITING_SECOND_FACTOR, got %s", state)
	}

	pending, err := svc.SecondFactorPending(ctx)
	if err != nil || !pending {
		t.Errorf("expected pending flag set, got %v %v", pending, err)
	}

	// The retry needs identifier+password+token together, so credentials stay.
	if !keyPresent(t, store, domain.KeyIdentifier) || !keyPresent(t, store, domain.KeyPassword) {
		t.Error("credentials must survive a second-factor challenge")
	}
	if keyPresent(t, store, domain.KeyClientSession) {
		t.Error("no session may be stored during a challenge")
	}
}

func TestAuthServiceImpl_SubmitCredentials_SecondFactorRetry(t *testing.T) {
	ctx := context.Background()
	var gotPassword, gotToken string
	remote := mocks.NewMockRemoteClient()
	remote.LoginFunc = func(ctx context.Context, identifier, password, token string) (*domain.Session, error) {
		if token == "" {
			return nil, domain.ClassifyRemote(domain.SecondFactorMarker)
		}
		gotPassword, gotToken = password, token
		return &domain.Session{DID: "did:plc:abc", Handle: identifier, AccessJWT: "a", RefreshJWT: "r"}, nil
	}
	svc, store := setupAuthService(t, remote, false)

	if _, err := svc.SubmitCredentials(ctx, "alice", "hunter2", ""); !errors.Is(err, domain.ErrSecondFactorRequired) {
		t.Fatalf("expected challenge, got %v", err)
	}
	if _, err := svc.SubmitCredentials(ctx, "alice", "hunter2", "12345"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if gotPassword != "hunter2" || gotToken != "12345" {
		t.Errorf("retry must carry password and token together, got %q %q", gotPassword, gotToken)
	}

	if pending, _ := svc.SecondFactorPending(ctx); pending {
		t.Error("pending flag must clear on success")
	}
	if keyPresent(t, store, domain.KeyIdentifier) {
		t.Error("credentials must be purged after the retry succeeds")
	}
}

func TestAuthServiceImpl_SubmitCredentials_Failure(t *testing.T) {
	tests := []struct {
		name            string
		retain          bool
		remoteMessage   string
		expectedKind    error
		wantCredsStored bool
	}{
		{
			name:            "rate limit purges credentials",
			retain:          false,
			remoteMessage:   domain.RateLimitMarker,
			expectedKind:    domain.ErrRateLimited,
			wantCredsStored: false,
		},
		{
			name:            "generic failure purges credentials",
			retain:          false,
			remoteMessage:   "Invalid identifier or password",
			wantCredsStored: false,
		},
		{
			name:            "generic failure retains credentials when configured",
			retain:          true,
			remoteMessage:   "Invalid identifier or password",
			wantCredsStored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			remote := mocks.NewMockRemoteClient()
			remote.LoginFunc = func(ctx context.Context, identifier, password, token string) (*domain.Session, error) {
				return nil, domain.ClassifyRemote(tt.remoteMessage)
			}
			svc, store := setupAuthService(t, remote, tt.retain)

			_, err := svc.SubmitCredentials(ctx, "alice", "hunter2", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.remoteMessage {
				t.Errorf("expected verbatim remote message %q, got %q", tt.remoteMessage, err.Error())
			}
			if tt.expectedKind != nil && !errors.Is(err, tt.expectedKind) {
				t.Errorf("expected error kind %v", tt.expectedKind)
			}

			state, _ := svc.State(ctx)
			if state != domain.AuthStateUnauthenticated {
				t.Errorf("expected UNAUTHENTICATED, got %s", state)
			}

			credsStored := keyPresent(t, store, domain.KeyIdentifier)
			if credsStored != tt.wantCredsStored {
				t.Errorf("credentials stored = %v, want %v", credsStored, tt.wantCredsStored)
			}
			if keyPresent(t, store, domain.KeyClientSession) {
				t.Error("no session may be stored after a failed login")
			}
		})
	}
}

func TestAuthServiceImpl_Rehydration(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	// A session left behind by a previous context run.
	data, _ := json.Marshal(&domain.Session{DID: "did:plc:abc", Handle: "alice.bsky.social", AccessJWT: "a", RefreshJWT: "r"})
	store.Set(ctx, domain.KeyClientSession, string(data))
	// Stale values that should be ignored while the session exists.
	store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateUnauthenticated))
	store.Set(ctx, domain.KeyIdentifier, "stale")

	svc := NewAuthService(store, mocks.NewMockRemoteClient(), mocks.NewMockAuditLogger(), AuthConfig{})

	state, err := svc.State(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != domain.AuthStateAuthenticated {
		t.Errorf("session presence must win: expected AUTHENTICATED, got %s", state)
	}

	creds, err := svc.Credentials(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds != nil {
		t.Error("credentials must not be reported while a session exists")
	}
}

func TestAuthServiceImpl_Rehydration_NoSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, domain.KeyAuthState, string(domain.AuthStateAwaitingSecondFactor))
	store.Set(ctx, domain.KeySecondFactorPending, "true")
	store.Set(ctx, domain.KeyIdentifier, "alice.bsky.social")
	store.Set(ctx, domain.KeyPassword, "hunter2")

	svc := NewAuthService(store, mocks.NewMockRemoteClient(), mocks.NewMockAuditLogger(), AuthConfig{})

	state, _ := svc.State(ctx)
	if state != domain.AuthStateAwaitingSecondFactor {
		t.Errorf("a UI restart mid-challenge must resume the code-entry step, got %s", state)
	}

	creds, err := svc.Credentials(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds == nil || creds.Identifier != "alice.bsky.social" || creds.Password != "hunter2" {
		t.Errorf("expected stored credentials back, got %+v", creds)
	}
}

func TestAuthServiceImpl_State_Default(t *testing.T) {
	svc, _ := setupAuthService(t, mocks.NewMockRemoteClient(), false)
	state, err := svc.State(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != domain.AuthStateUnauthenticated {
		t.Errorf("expected default UNAUTHENTICATED, got %s", state)
	}
}

func TestAuthServiceImpl_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewMockRemoteClient()
	svc, store := setupAuthService(t, remote, false)

	if _, err := svc.SubmitCredentials(ctx, "alice", "hunter2", ""); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Logout(ctx); err != nil {
			t.Fatalf("logout %d failed: %v", i+1, err)
		}
		state, _ := svc.State(ctx)
		if state != domain.AuthStateUnauthenticated {
			t.Errorf("logout %d: expected UNAUTHENTICATED, got %s", i+1, state)
		}
		if keyPresent(t, store, domain.KeyClientSession) {
			t.Errorf("logout %d: session must be removed", i+1)
		}
		if keyPresent(t, store, domain.KeyIdentifier) || keyPresent(t, store, domain.KeyPassword) {
			t.Errorf("logout %d: credentials must be absent", i+1)
		}
	}
}

func TestAuthServiceImpl_CancelSecondFactor(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewMockRemoteClient()
	remote.LoginFunc = func(ctx context.Context, identifier, password, token string) (*domain.Session, error) {
		return nil, domain.ClassifyRemote(domain.SecondFactorMarker)
	}
	svc, _ := setupAuthService(t, remote, false)

	if _, err := svc.SubmitCredentials(ctx, "alice", "hunter2", ""); !errors.Is(err, domain.ErrSecondFactorRequired) {
		t.Fatalf("expected challenge, got %v", err)
	}

	if err := svc.CancelSecondFactor(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending, _ := svc.SecondFactorPending(ctx); pending {
		t.Error("expected pending flag cleared")
	}
	state, _ := svc.State(ctx)
	if state != domain.AuthStateUnauthenticated {
		t.Errorf("expected UNAUTHENTICATED after back action, got %s", state)
	}
}
