package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/dagengine/dagengine-sub004/services/providers"
)

// DefaultModel is used when neither the config nor the call names a model.
const DefaultModel = "gpt-4o"

// OpenAIAdapter implements the Provider interface for the OpenAI chat completions API
type OpenAIAdapter struct {
	client       openai.Client
	defaultModel string
}

const defaultBaseURL = "https://api.openai.com/v1"

// NewOpenAIAdapter creates a new OpenAI adapter.
// The SDK's built-in retries are disabled so each Process call is exactly one request.
// OPENAI_BASE_URL, OPENAI_ORG_ID and OPENAI_PROJECT_ID from the environment are
// overridden; organization or project headers come only from config.Headers.
func NewOpenAIAdapter(config providers.ProviderConfig) *OpenAIAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
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

	return &OpenAIAdapter{
		client:       openai.NewClient(opts...),
		defaultModel: model,
	}
}

// New is a providers.Factory for OpenAI.
func New(config providers.ProviderConfig) (providers.Provider, error) {
	return NewOpenAIAdapter(config), nil
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return providers.OpenAI
}

// DefaultModel returns the model used when the call does not name one
func (a *OpenAIAdapter) DefaultModel() string {
	return a.defaultModel
}

// Process sends prompt as a single user message and normalizes the first choice.
func (a *OpenAIAdapter) Process(ctx context.Context, prompt string, opts providers.ProcessOptions) (*providers.Response, error) {
	params := opts.Resolve(a.defaultModel)

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(params.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(params.Temperature),
		MaxTokens:   openai.Int(params.MaxTokens),
	})
	if err != nil {
		return nil, a.handleError(err)
	}

	return providers.Normalize(extractText(completion)), nil
}

func extractText(completion *openai.ChatCompletion) string {
	if completion == nil || len(completion.Choices) == 0 {
		return ""
	}
	return completion.Choices[0].Message.Content
}

func (a *OpenAIAdapter) handleError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return providers.NewUpstreamError(a.Name(), apiErr.StatusCode, apiErr.Message, err)
	}
	return fmt.Errorf("%s: request failed: %w", a.Name(), err)
}
