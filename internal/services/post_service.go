package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// PostServiceImpl implements domain.PostService.
type PostServiceImpl struct {
	store  domain.Store
	remote domain.RemoteClient
	audit  domain.AuditLogger
	logger *zap.Logger
}

// NewPostService creates a new post service
func NewPostService(store domain.Store, remote domain.RemoteClient, audit domain.AuditLogger, logger *zap.Logger) domain.PostService {
	return &PostServiceImpl{
		store:  store,
		remote: remote,
		audit:  audit,
		logger: logger,
	}
}

// ComposeText builds the outgoing post text: quoted title, quoted quote,
// freeform comments, then URL — non-empty parts only, separated by one blank
// line each.
func ComposeText(draft domain.DraftPost) string {
	var parts []string
	if draft.Title != "" {
		parts = append(parts, `"`+draft.Title+`"`)
	}
	if draft.Quote != "" {
		parts = append(parts, `"`+draft.Quote+`"`)
	}
	if draft.Comments != "" {
		parts = append(parts, draft.Comments)
	}
	if draft.URL != "" {
		parts = append(parts, draft.URL)
	}
	return strings.Join(parts, "\n\n")
}

// Publish implements domain.PostService
func (s *PostServiceImpl) Publish(ctx context.Context, draft domain.DraftPost) error {
	return s.PublishText(ctx, ComposeText(draft))
}

// PublishText implements domain.PostService. The session is re-read from the
// store on every call: a logout in another context must be honored even if
// this one saw a session a moment ago. On failure the draft stays in storage
// untouched so the user can edit and retry.
func (s *PostServiceImpl) PublishText(ctx context.Context, text string) error {
	session, err := s.loadSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrNotAuthenticated
	}

	session, err = s.remote.ResumeSession(ctx, session)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PostPublishFailureEvent).WithError(err))
		return err
	}
	// Resumption may have rotated the tokens; keep the store current.
	if err := s.saveSession(ctx, session); err != nil {
		return err
	}

	if err := s.remote.Post(ctx, session, text); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PostPublishFailureEvent).WithError(err))
		return err
	}

	if err := s.store.Remove(ctx, domain.KeyDraftPost); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PostPublishedEvent).WithIdentifier(session.Handle))
	s.logger.Info("post published", zap.String("handle", session.Handle))
	return nil
}

func (s *PostServiceImpl) loadSession(ctx context.Context) (*domain.Session, error) {
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

func (s *PostServiceImpl) saveSession(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.store.Set(ctx, domain.KeyClientSession, string(data))
}
