package providers

import (
	"context"
	"net/http"
	"time"
)

// Canonical provider names used as AdapterConfig keys and in ProcessOptions.Provider.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
)

// Provider is a single LLM backend that turns a prompt into a normalized response.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "anthropic", "gemini")
	Name() string

	// Process sends exactly one request to the backend and normalizes the reply.
	// Fields of opts the provider does not understand are ignored.
	Process(ctx context.Context, prompt string, opts ProcessOptions) (*Response, error)
}

// ProviderConfig holds the settings for one provider.
type ProviderConfig struct {
	// APIKey is the credential; a provider without one is never registered
	APIKey string `yaml:"apiKey" json:"apiKey"`

	// BaseURL overrides the provider's public endpoint
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`

	// Model overrides the provider's default model
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Timeout bounds a single HTTP exchange; zero leaves it to the caller's context
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Headers are sent with every request
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// HTTPClient replaces the default transport (tests, proxies, shared pools)
	HTTPClient *http.Client `yaml:"-" json:"-"`

	// Extra carries provider-specific settings that are accepted but not validated
	Extra map[string]any `yaml:",inline" json:"-"`
}

// HasCredential reports whether the config carries a non-empty API key.
func (c ProviderConfig) HasCredential() bool {
	return c.APIKey != ""
}

// Client returns the configured HTTP client, or a new one honoring Timeout.
func (c ProviderConfig) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}

// AdapterConfig maps provider names to their settings.
type AdapterConfig map[string]ProviderConfig

// Names returns the configured provider names that carry a credential.
func (c AdapterConfig) Names() []string {
	names := make([]string, 0, len(c))
	for name, cfg := range c {
		if cfg.HasCredential() {
			names = append(names, name)
		}
	}
	return names
}
