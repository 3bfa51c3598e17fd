package domain

import (
	"context"
	"encoding/json"
)

// Store defines the persistent KV store shared by every context. Values are
// strings; structured values are stored as JSON. Reads in one context are not
// guaranteed to see a concurrent write from another, so callers re-read rather
// than trusting values carried over from a previous message.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Bus is the asynchronous, at-most-once request/response channel between
// contexts. It has no built-in timeout; callers bound every Send with a
// context deadline because the counterpart context may have been torn down.
type Bus interface {
	Send(ctx context.Context, name string, body any) (json.RawMessage, error)
}

// AuthService owns the authentication state machine and synchronizes
// credentials and session to the store.
type AuthService interface {
	State(ctx context.Context) (AuthState, error)
	Credentials(ctx context.Context) (*Credentials, error)
	SubmitCredentials(ctx context.Context, identifier, password, secondFactorToken string) (*Session, error)
	Session(ctx context.Context) (*Session, error)
	SecondFactorPending(ctx context.Context) (bool, error)
	CancelSecondFactor(ctx context.Context) error
	Logout(ctx context.Context) error
}

// DraftService stages, loads and edits the draft post.
type DraftService interface {
	CaptureSelection(ctx context.Context, page PageData) (*DraftPost, error)
	LoadDraft(ctx context.Context) (*DraftPost, error)
	UpdateDraft(ctx context.Context, draft DraftPost) error
	DiscardDraft(ctx context.Context) error
}

// PostService merges the draft into post text and submits it through the
// remote client.
type PostService interface {
	Publish(ctx context.Context, draft DraftPost) error
	PublishText(ctx context.Context, text string) error
}

// RemoteClient wraps the social network's login and post calls. ResumeSession
// is idempotent and side-effect free from the caller's perspective.
type RemoteClient interface {
	Login(ctx context.Context, identifier, password, secondFactorToken string) (*Session, error)
	ResumeSession(ctx context.Context, session *Session) (*Session, error)
	Post(ctx context.Context, session *Session, text string) error
}

// PageProbe reads the selection, title and URL off the active page. It lives
// in a separate context and is reached through the bus.
type PageProbe interface {
	PageData(ctx context.Context) (*PageData, error)
}

// AuditLogger records business events so a failed login or publish can be
// traced after the transient UI is long gone.
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}
