package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/boxabirds/post-to-bluesky/domain"
	"github.com/boxabirds/post-to-bluesky/internal/bus"
)

// Message names in the catalogue. get-page-data is registered by the content
// probe side, not here.
const (
	MessageLogin          = "login"
	MessagePost           = "post"
	MessageOpenPostDialog = "open-post-dialog"
)

// MessageHandlers turns bus messages into service calls. Each handler is a
// function of the request body and the persisted state its service re-reads;
// nothing is carried between messages.
type MessageHandlers struct {
	authSvc  domain.AuthService
	draftSvc domain.DraftService
	postSvc  domain.PostService
}

// NewMessageHandlers creates new message handlers
func NewMessageHandlers(authSvc domain.AuthService, draftSvc domain.DraftService, postSvc domain.PostService) *MessageHandlers {
	return &MessageHandlers{
		authSvc:  authSvc,
		draftSvc: draftSvc,
		postSvc:  postSvc,
	}
}

// Register wires the handlers into the router.
func (h *MessageHandlers) Register(r *bus.Router) {
	r.Handle(MessageLogin, h.Login)
	r.Handle(MessagePost, h.Post)
	r.Handle(MessageOpenPostDialog, h.OpenPostDialog)
}

// LoginRequest is the login message body.
type LoginRequest struct {
	Identifier      string `json:"identifier"`
	Password        string `json:"password"`
	AuthFactorToken string `json:"authFactorToken,omitempty"`
}

// OpenPostDialogRequest is the open-post-dialog message body.
type OpenPostDialogRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PostRequest is the post message body.
type PostRequest struct {
	Text string `json:"text"`
}

// errorEnvelope mirrors the wire shape the UI surface expects: failures are
// part of the response body, never a transport-level fault.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}

type successEnvelope struct {
	Success bool `json:"success"`
}

type sessionEnvelope struct {
	Session *domain.Session `json:"session"`
}

// Login handles the login message. Auth errors ride back inside the envelope
// with their verbatim message; only malformed requests are handler errors.
func (h *MessageHandlers) Login(ctx context.Context, req json.RawMessage) (any, error) {
	var body LoginRequest
	if err := json.Unmarshal(req, &body); err != nil {
		return nil, err
	}

	session, err := h.authSvc.SubmitCredentials(ctx, body.Identifier, body.Password, body.AuthFactorToken)
	if err != nil {
		return errorEnvelope{Error: errorBody{Message: err.Error()}}, nil
	}
	return sessionEnvelope{Session: session}, nil
}

// Post handles the post message: publish the given text using the stored
// session, clearing the draft on success.
func (h *MessageHandlers) Post(ctx context.Context, req json.RawMessage) (any, error) {
	var body PostRequest
	if err := json.Unmarshal(req, &body); err != nil {
		return nil, err
	}

	if err := h.postSvc.PublishText(ctx, body.Text); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return errorEnvelope{Error: errorBody{Message: "Not logged in"}}, nil
		}
		return errorEnvelope{Error: errorBody{Message: err.Error()}}, nil
	}
	return successEnvelope{Success: true}, nil
}

// OpenPostDialog handles the explicit capture path: stage a draft from the
// page selection. Opening the UI surface is the runtime's side of the
// contract; staging is ours.
func (h *MessageHandlers) OpenPostDialog(ctx context.Context, req json.RawMessage) (any, error) {
	var body OpenPostDialogRequest
	if err := json.Unmarshal(req, &body); err != nil {
		return nil, err
	}

	page := domain.PageData{Text: body.Text, Title: body.Title, URL: body.URL}
	if _, err := h.draftSvc.CaptureSelection(ctx, page); err != nil {
		return errorEnvelope{Error: errorBody{Message: err.Error()}}, nil
	}
	return successEnvelope{Success: true}, nil
}
