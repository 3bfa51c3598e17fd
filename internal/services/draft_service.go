package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// MessageGetPageData is the bus request answered by the content probe. The
// response is a JSON document carried as a single string payload.
const MessageGetPageData = "get-page-data"

// DraftServiceImpl implements domain.DraftService. It is the only writer of
// the draft key.
type DraftServiceImpl struct {
	store      domain.Store
	bus        domain.Bus
	audit      domain.AuditLogger
	logger     *zap.Logger
	busTimeout time.Duration
}

// NewDraftService creates a new draft service
func NewDraftService(store domain.Store, bus domain.Bus, audit domain.AuditLogger, logger *zap.Logger, busTimeout time.Duration) domain.DraftService {
	return &DraftServiceImpl{
		store:      store,
		bus:        bus,
		audit:      audit,
		logger:     logger,
		busTimeout: busTimeout,
	}
}

// CaptureSelection implements domain.DraftService. An existing draft always
// wins: a fresh capture must never silently overwrite in-progress edits.
func (s *DraftServiceImpl) CaptureSelection(ctx context.Context, page domain.PageData) (*domain.DraftPost, error) {
	existing, err := s.storedDraft(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Debug("capture skipped, draft already staged")
		return existing, nil
	}

	draft := domain.DraftPost{
		Title: page.Title,
		Quote: page.Text,
		URL:   page.URL,
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DraftCapturedEvent))
	return &draft, nil
}

// LoadDraft implements domain.DraftService. The UI-open path: a stored draft
// is returned verbatim; otherwise the content probe is asked for the page
// data and the result is staged. Probe failure is soft — some pages refuse
// content scripts — and degrades to blank fields.
func (s *DraftServiceImpl) LoadDraft(ctx context.Context) (*domain.DraftPost, error) {
	existing, err := s.storedDraft(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	page := s.probePageData(ctx)
	draft := domain.DraftPost{
		Title: page.Title,
		Quote: page.Text,
		URL:   page.URL,
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DraftCapturedEvent))
	return &draft, nil
}

// UpdateDraft implements domain.DraftService
func (s *DraftServiceImpl) UpdateDraft(ctx context.Context, draft domain.DraftPost) error {
	return s.saveDraft(ctx, draft)
}

// DiscardDraft implements domain.DraftService
func (s *DraftServiceImpl) DiscardDraft(ctx context.Context) error {
	if err := s.store.Remove(ctx, domain.KeyDraftPost); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DraftDiscardedEvent))
	return nil
}

// probePageData asks the content probe for the current selection. The bus has
// no timeout of its own; the probe's context may be gone, so the call is
// bounded here and any failure collapses to empty page data.
func (s *DraftServiceImpl) probePageData(ctx context.Context) domain.PageData {
	ctx, cancel := context.WithTimeout(ctx, s.busTimeout)
	defer cancel()

	raw, err := s.bus.Send(ctx, MessageGetPageData, struct{}{})
	if err != nil {
		s.logger.Debug("page probe unavailable", zap.Error(err))
		return domain.PageData{}
	}

	// The probe serializes its answer as a JSON string payload.
	var payload string
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logger.Debug("unexpected probe payload", zap.Error(err))
		return domain.PageData{}
	}

	var page domain.PageData
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		s.logger.Debug("malformed probe payload", zap.Error(err))
		return domain.PageData{}
	}
	return page
}

func (s *DraftServiceImpl) storedDraft(ctx context.Context) (*domain.DraftPost, error) {
	raw, err := s.store.Get(ctx, domain.KeyDraftPost)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var draft domain.DraftPost
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

func (s *DraftServiceImpl) saveDraft(ctx context.Context, draft domain.DraftPost) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return s.store.Set(ctx, domain.KeyDraftPost, string(data))
}
