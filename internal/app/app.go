package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/internal/config"
	httpx "github.com/boxabirds/post-to-bluesky/internal/http"
)

// Run wires the background controller and serves the message catalogue until
// the process is stopped. Individual failed logins, posts and captures are
// handled inside the router; none of them are fatal here.
func Run(cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	r := httpx.BuildRouter(container.Router)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	return r.Run(addr)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
