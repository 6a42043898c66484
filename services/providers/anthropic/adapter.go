package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/dagengine/dagengine-sub004/services/providers"
)

// DefaultModel is used when neither the config nor the call names a model.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// Adapter implements the Provider interface for the Anthropic messages API.
// The SDK sends the key in x-api-key along with the anthropic-version header.
type Adapter struct {
	client       anthropic.Client
	defaultModel string
}

const defaultBaseURL = "https://api.anthropic.com"

// NewAdapter creates a new Anthropic adapter with SDK retries disabled.
// The client is bound to config alone: ANTHROPIC_BASE_URL and
// ANTHROPIC_AUTH_TOKEN from the environment are overridden, so the only
// credential on the wire is x-api-key.
func NewAdapter(config providers.ProviderConfig) *Adapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHeaderDel("authorization"),
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(config.Client()),
	}
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &Adapter{
		client:       anthropic.NewClient(opts...),
		defaultModel: model,
	}
}

// New is a providers.Factory for Anthropic.
func New(config providers.ProviderConfig) (providers.Provider, error) {
	return NewAdapter(config), nil
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providers.Anthropic
}

// DefaultModel returns the model used when the call does not name one
func (a *Adapter) DefaultModel() string {
	return a.defaultModel
}

// Process sends prompt as a single user turn and normalizes the first content block.
func (a *Adapter) Process(ctx context.Context, prompt string, opts providers.ProcessOptions) (*providers.Response, error) {
	params := opts.Resolve(a.defaultModel)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(params.Model),
		MaxTokens:   params.MaxTokens,
		Temperature: anthropic.Float(params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, a.handleError(err)
	}

	return providers.Normalize(extractText(msg)), nil
}

func extractText(msg *anthropic.Message) string {
	if msg == nil || len(msg.Content) == 0 {
		return ""
	}
	return msg.Content[0].Text
}

func (a *Adapter) handleError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return providers.NewUpstreamError(a.Name(), apiErr.StatusCode, upstreamMessage(apiErr), err)
	}
	return fmt.Errorf("%s: request failed: %w", a.Name(), err)
}

func upstreamMessage(apiErr *anthropic.Error) string {
	if msg := gjson.Get(apiErr.RawJSON(), "error.message").String(); msg != "" {
		return msg
	}
	if apiErr.Response == nil {
		return ""
	}
	return apiErr.Response.Status
}
