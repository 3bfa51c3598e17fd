package domain

import (
	"errors"
	"strings"
)

// Authentication errors
var (
	ErrSecondFactorRequired = errors.New("second factor required")
	ErrRateLimited          = errors.New("rate limited")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotAuthenticated     = errors.New("not authenticated")
)

// Storage errors
var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrDraftNotFound   = errors.New("draft not found")
)

// Capture errors
var (
	// ErrProbeUnavailable is a soft failure: the capture pipeline falls back
	// to blank fields and never surfaces it to the user.
	ErrProbeUnavailable = errors.New("page probe unavailable")
)

// Bus errors
var (
	ErrUnknownMessage = errors.New("unknown message name")
)

// RemoteError carries a remote failure's verbatim message, which is always
// surfaced to the user, while unwrapping to the sentinel chosen by marker
// classification so callers can branch with errors.Is.
type RemoteError struct {
	Message string
	kind    error
}

// ClassifyRemote wraps a remote error message. Messages containing the
// second-factor or rate-limit marker map to their sentinels; anything else is
// generic and unwraps to nothing.
func ClassifyRemote(message string) *RemoteError {
	e := &RemoteError{Message: message}
	switch {
	case strings.Contains(message, SecondFactorMarker):
		e.kind = ErrSecondFactorRequired
	case strings.Contains(message, RateLimitMarker):
		e.kind = ErrRateLimited
	}
	return e
}

// NewRemoteError wraps a message with an explicit kind, for failures the
// transport already classified (e.g. a 401 on an expired session).
func NewRemoteError(message string, kind error) *RemoteError {
	return &RemoteError{Message: message, kind: kind}
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return e.kind }
