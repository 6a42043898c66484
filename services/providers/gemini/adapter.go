package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dagengine/dagengine-sub004/services/providers"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when neither the config nor the call names a model.
	DefaultModel = "gemini-2.0-flash"

	textPath    = "candidates.0.content.parts.0.text"
	maxErrorLen = 512
)

// Adapter implements the Provider interface for the Gemini generateContent API.
// The key travels as the "key" query parameter and the model is part of the path.
type Adapter struct {
	config       providers.ProviderConfig
	httpClient   *http.Client
	defaultModel string
}

// NewAdapter creates a new Gemini adapter
func NewAdapter(config providers.ProviderConfig) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &Adapter{
		config:       config,
		httpClient:   config.Client(),
		defaultModel: model,
	}
}

// New is a providers.Factory for Gemini.
func New(config providers.ProviderConfig) (providers.Provider, error) {
	return NewAdapter(config), nil
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providers.Gemini
}

// DefaultModel returns the model used when the call does not name one
func (a *Adapter) DefaultModel() string {
	return a.defaultModel
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int64   `json:"maxOutputTokens"`
}

// Process posts a single-part content request and normalizes the first candidate.
func (a *Adapter) Process(ctx context.Context, prompt string, opts providers.ProcessOptions) (*providers.Response, error) {
	params := opts.Resolve(a.defaultModel)

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", a.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(params.Model), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", a.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", a.Name(), redactKey(err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", a.Name(), err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return providers.Normalize(gjson.GetBytes(respBody, textPath).String()), nil
}

func (a *Adapter) endpoint(model string) string {
	q := url.Values{}
	q.Set("key", a.config.APIKey)
	return fmt.Sprintf("%s/models/%s:generateContent?%s", a.config.BaseURL, url.PathEscape(model), q.Encode())
}

func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = strings.TrimSpace(string(body))
		if len(message) > maxErrorLen {
			message = message[:maxErrorLen]
		}
	}
	return providers.NewUpstreamError(a.Name(), statusCode, message, nil)
}

// redactKey strips the URL from transport errors so the key query parameter is not logged.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s generateContent: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
