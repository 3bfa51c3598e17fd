package app

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/domain"
	"github.com/boxabirds/post-to-bluesky/internal/bus"
	"github.com/boxabirds/post-to-bluesky/internal/config"
	"github.com/boxabirds/post-to-bluesky/internal/http/handlers"
	"github.com/boxabirds/post-to-bluesky/internal/infrastructure/audit"
	"github.com/boxabirds/post-to-bluesky/internal/infrastructure/bsky"
	"github.com/boxabirds/post-to-bluesky/internal/infrastructure/storage"
	"github.com/boxabirds/post-to-bluesky/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	RedisClient *redis.Client
	Store       domain.Store
	Remote      domain.RemoteClient
	Audit       domain.AuditLogger

	// Coordination
	Router *bus.Router
	Bus    domain.Bus

	// Optional content probe; when attached it answers get-page-data.
	Probe domain.PageProbe

	// Services
	AuthSvc  domain.AuthService
	DraftSvc domain.DraftService
	PostSvc  domain.PostService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	container := &Container{Config: cfg, Logger: logger}

	if err := container.initStore(); err != nil {
		return nil, err
	}
	container.initBus()
	container.initServices()
	container.registerHandlers()

	return container, nil
}

// initStore picks the persistent KV backend. With no Redis address the store
// is process-local memory, which is fine for a single-context run and tests
// but loses drafts across restarts.
func (c *Container) initStore() error {
	if c.Config.RedisAddr == "" {
		c.Logger.Warn("no redis address configured, using in-memory store")
		c.Store = storage.NewMemoryStore()
		return nil
	}

	c.RedisClient = storage.NewRedisClient(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := c.RedisClient.Ping(context.Background()).Err(); err != nil {
		return err
	}
	c.Store = storage.NewRedisStore(c.RedisClient)
	return nil
}

func (c *Container) initBus() {
	c.Router = bus.NewRouter(c.Logger)
	c.Bus = bus.NewLocal(c.Router, c.Config.BusTimeout)
}

func (c *Container) initServices() {
	c.Remote = bsky.NewClient(c.Config.ServiceURL, c.Logger)
	c.Audit = audit.NewZapAuditLogger(c.Logger)

	c.AuthSvc = services.NewAuthService(c.Store, c.Remote, c.Audit, services.AuthConfig{
		DefaultDomain:              c.Config.DefaultDomain,
		RetainCredentialsOnFailure: c.Config.RetainCredentialsOnFailure,
	})
	c.DraftSvc = services.NewDraftService(c.Store, c.Bus, c.Audit, c.Logger, c.Config.BusTimeout)
	c.PostSvc = services.NewPostService(c.Store, c.Remote, c.Audit, c.Logger)
}

func (c *Container) registerHandlers() {
	mh := handlers.NewMessageHandlers(c.AuthSvc, c.DraftSvc, c.PostSvc)
	mh.Register(c.Router)
}

// AttachProbe registers a content probe as the get-page-data endpoint. The
// probe runs in its own context; from here it is only ever reached through
// the bus.
func (c *Container) AttachProbe(probe domain.PageProbe) {
	c.Probe = probe
	c.Router.Handle(services.MessageGetPageData, func(ctx context.Context, _ json.RawMessage) (any, error) {
		page, err := probe.PageData(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(page)
		if err != nil {
			return nil, err
		}
		// Single string payload, by contract with the probe.
		return string(payload), nil
	})
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
