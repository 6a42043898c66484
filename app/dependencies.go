package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dagengine/dagengine-sub004/config"
	"github.com/dagengine/dagengine-sub004/middleware"
	"github.com/dagengine/dagengine-sub004/services/adapter"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// LLM providers
	Adapter *adapter.Adapter

	// Auth; nil when AUTH_ENABLED=false
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initAdapter(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.Adapter.Providers()))
	return deps, nil
}

// initAdapter registers every provider that has a credential
func (d *Dependencies) initAdapter(cfg *config.Config) {
	d.Adapter = adapter.New(cfg.Providers, adapter.WithLogger(d.Logger.Named("adapter")))
}

// initAuth picks the bearer token validator
func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.Auth.Enabled {
		d.Logger.Warn("authentication disabled; /api/v1/process is open")
		return
	}

	var validator middleware.TokenValidator
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("auth enabled without AUTH_JWT_SECRET; all bearer tokens will be rejected")
		validator = middleware.RejectAllValidator{}
	} else {
		validator = middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
}

// Close releases resources held by the dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	// zap returns EINVAL/ENOTTY syncing stderr on some platforms; not actionable
	_ = d.Logger.Sync()
	return nil
}
