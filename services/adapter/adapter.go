// Package adapter exposes a single Process entry point over every configured
// LLM provider. Providers are registered once at construction time, keyed by
// their canonical name, and only when a credential was supplied for them.
package adapter

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dagengine/dagengine-sub004/services/providers"
	"github.com/dagengine/dagengine-sub004/services/providers/anthropic"
	"github.com/dagengine/dagengine-sub004/services/providers/gemini"
	"github.com/dagengine/dagengine-sub004/services/providers/openai"
)

// Adapter routes Process calls to the provider named in the options.
// It is safe for concurrent use.
type Adapter struct {
	registry *providers.Registry
	logger   *zap.Logger
}

type settings struct {
	logger     *zap.Logger
	httpClient *http.Client
	factories  map[string]providers.Factory
}

// Option customizes New.
type Option func(*settings)

// WithLogger sets the logger used for registration and call logs.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHTTPClient shares client with every provider whose config has none.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithFactory adds or replaces the factory for name.
func WithFactory(name string, factory providers.Factory) Option {
	return func(s *settings) {
		s.factories[name] = factory
	}
}

// DefaultFactories returns the built-in provider factories keyed by name.
func DefaultFactories() map[string]providers.Factory {
	return map[string]providers.Factory{
		providers.OpenAI:    openai.New,
		providers.Anthropic: anthropic.New,
		providers.Gemini:    gemini.New,
	}
}

// New builds an Adapter from cfg. Entries without an API key and entries with
// no known factory are skipped with a warning; construction never fails.
func New(cfg providers.AdapterConfig, opts ...Option) *Adapter {
	s := &settings{
		logger:    zap.NewNop(),
		factories: DefaultFactories(),
	}
	for _, opt := range opts {
		opt(s)
	}

	a := &Adapter{
		registry: providers.NewRegistry(),
		logger:   s.logger,
	}

	for name, pc := range cfg {
		if !pc.HasCredential() {
			a.logger.Warn("provider skipped: missing API key", zap.String("provider", name))
			continue
		}

		factory, ok := s.factories[name]
		if !ok {
			a.logger.Warn("provider skipped: unknown provider", zap.String("provider", name))
			continue
		}

		if pc.HTTPClient == nil && s.httpClient != nil {
			pc.HTTPClient = s.httpClient
		}

		provider, err := factory(pc)
		if err != nil {
			a.logger.Error("provider skipped: failed to build",
				zap.String("provider", name),
				zap.Error(err),
			)
			continue
		}
		if err := a.registry.Register(named{Provider: provider, name: name}); err != nil {
			a.logger.Error("provider skipped: failed to register",
				zap.String("provider", name),
				zap.Error(err),
			)
			continue
		}

		a.logger.Info("provider registered", zap.String("provider", name))
	}

	if a.registry.Len() == 0 {
		a.logger.Warn("no LLM providers configured")
	}

	return a
}

// Process sends prompt to the provider named by opts.Provider and returns its
// normalized response unchanged. An unknown or unconfigured provider yields an
// error matching providers.ErrProviderUnavailable and no request is made.
func (a *Adapter) Process(ctx context.Context, prompt string, opts providers.ProcessOptions) (*providers.Response, error) {
	provider, err := a.registry.Get(opts.Provider)
	if err != nil {
		a.logger.Debug("provider unavailable", zap.String("provider", opts.Provider))
		return nil, err
	}

	resp, err := provider.Process(ctx, prompt, opts)
	if err != nil {
		a.logger.Debug("provider call failed",
			zap.String("provider", opts.Provider),
			zap.String("model", opts.Model),
			zap.Int("upstream_status", providers.UpstreamStatus(err)),
			zap.Bool("retryable", providers.IsRetryable(err)),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}

// Providers returns the registered provider names in sorted order.
func (a *Adapter) Providers() []string {
	return a.registry.Names()
}

// Has reports whether name is registered.
func (a *Adapter) Has(name string) bool {
	return a.registry.Has(name)
}

// named pins a provider to the config key it was built from.
type named struct {
	providers.Provider
	name string
}

func (n named) Name() string {
	return n.name
}
