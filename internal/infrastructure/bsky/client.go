package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/domain"
)

const (
	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
	getSessionPath     = "/xrpc/com.atproto.server.getSession"
	createRecordPath   = "/xrpc/com.atproto.repo.createRecord"

	postCollection = "app.bsky.feed.post"
)

// Client implements domain.RemoteClient against the Bluesky XRPC API.
type Client struct {
	http    *http.Client
	service string
	logger  *zap.Logger
}

// NewClient creates a Bluesky client for the given service URL.
func NewClient(serviceURL string, logger *zap.Logger) domain.RemoteClient {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		service: serviceURL,
		logger:  logger,
	}
}

type loginRequest struct {
	Identifier      string `json:"identifier"`
	Password        string `json:"password"`
	AuthFactorToken string `json:"authFactorToken,omitempty"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type postRecord struct {
	Type      string `json:"$type"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login implements domain.RemoteClient
func (c *Client) Login(ctx context.Context, identifier, password, secondFactorToken string) (*domain.Session, error) {
	req := loginRequest{
		Identifier:      identifier,
		Password:        password,
		AuthFactorToken: secondFactorToken,
	}

	var session domain.Session
	if err := c.call(ctx, createSessionPath, "", req, &session); err != nil {
		return nil, err
	}

	c.logger.Info("login succeeded", zap.String("handle", session.Handle))
	return &session, nil
}

// ResumeSession implements domain.RemoteClient. Resumption is idempotent: a
// still-valid access token is validated as-is, an expired one is swapped for a
// fresh pair using the refresh token.
func (c *Client) ResumeSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session == nil {
		return nil, domain.NewRemoteError("no session to resume", domain.ErrNotAuthenticated)
	}

	if accessTokenExpired(session.AccessJWT) {
		refreshed := *session
		if err := c.get(ctx, refreshSessionPath, session.RefreshJWT, &refreshed, http.MethodPost); err != nil {
			return nil, err
		}
		c.logger.Info("session refreshed", zap.String("handle", refreshed.Handle))
		return &refreshed, nil
	}

	var current domain.Session
	if err := c.get(ctx, getSessionPath, session.AccessJWT, &current, http.MethodGet); err != nil {
		return nil, err
	}
	// getSession does not return tokens; keep the ones we hold.
	current.AccessJWT = session.AccessJWT
	current.RefreshJWT = session.RefreshJWT
	return &current, nil
}

// Post implements domain.RemoteClient
func (c *Client) Post(ctx context.Context, session *domain.Session, text string) error {
	if session == nil {
		return domain.NewRemoteError("no active session", domain.ErrNotAuthenticated)
	}

	req := createRecordRequest{
		Repo:       session.DID,
		Collection: postCollection,
		Record: postRecord{
			Type:      postCollection,
			Text:      text,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	var resp json.RawMessage
	if err := c.call(ctx, createRecordPath, session.AccessJWT, req, &resp); err != nil {
		return err
	}

	c.logger.Info("post created", zap.String("handle", session.Handle))
	return nil
}

// accessTokenExpired inspects the token's exp claim without verifying the
// signature; the signing key lives with the service, not with us.
func accessTokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now())
}

func (c *Client) call(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.service+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.do(httpReq, out)
}

func (c *Client) get(ctx context.Context, path, bearer string, out any, method string) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.service+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+bearer)

	return c.do(httpReq, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.remoteError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) remoteError(status int, body []byte) error {
	var xe xrpcError
	if err := json.Unmarshal(body, &xe); err != nil || xe.Message == "" {
		xe.Message = fmt.Sprintf("remote call failed with status %d", status)
	}

	c.logger.Warn("remote error",
		zap.Int("status", status),
		zap.String("code", xe.Error),
		zap.String("message", xe.Message))

	// Marker classification wins: a second-factor challenge also arrives as a
	// 401 and must not be mistaken for a rejected session.
	if err := domain.ClassifyRemote(xe.Message); err.Unwrap() != nil {
		return err
	}
	switch status {
	case http.StatusUnauthorized:
		return domain.NewRemoteError(xe.Message, domain.ErrNotAuthenticated)
	case http.StatusTooManyRequests:
		return domain.NewRemoteError(xe.Message, domain.ErrRateLimited)
	}
	return domain.ClassifyRemote(xe.Message)
}
