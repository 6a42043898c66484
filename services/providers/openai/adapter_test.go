package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/dagengine/dagengine-sub004/services/providers"
)

type capturedRequest struct {
	path          string
	authorization string
	organization  string
	project       string
	body          map[string]any
}

func newTestServer(t *testing.T, status int, payload string, captured *capturedRequest, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if captured != nil {
			captured.path = r.URL.Path
			captured.authorization = r.Header.Get("Authorization")
			captured.organization = r.Header.Get("OpenAI-Organization")
			captured.project = r.Header.Get("OpenAI-Project")
			if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
				t.Errorf("failed to decode request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func completionWithContent(t *testing.T, content string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal completion: %v", err)
	}
	return string(payload)
}

func TestNewOpenAIAdapter(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test"})

	if adapter.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", adapter.Name())
	}
	if adapter.DefaultModel() != DefaultModel {
		t.Errorf("DefaultModel() = %s, want %s", adapter.DefaultModel(), DefaultModel)
	}

	custom := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini"})
	if custom.DefaultModel() != "gpt-4o-mini" {
		t.Errorf("DefaultModel() = %s, want gpt-4o-mini", custom.DefaultModel())
	}
}

func TestOpenAIAdapter_Process_StructuredReply(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, completionWithContent(t, `{"sentiment":"positive"}`), &captured, nil)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	resp, err := adapter.Process(context.Background(), "Classify: I love it", providers.ProcessOptions{Provider: "openai"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := map[string]any{"sentiment": "positive"}
	if !reflect.DeepEqual(resp.Value(), want) {
		t.Errorf("Value() = %#v, want %#v", resp.Value(), want)
	}

	if captured.path != "/chat/completions" {
		t.Errorf("path = %s, want /chat/completions", captured.path)
	}
	if captured.authorization != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", captured.authorization)
	}
	if captured.body["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", captured.body["model"], DefaultModel)
	}
	if captured.body["temperature"] != 0.1 {
		t.Errorf("temperature = %v, want 0.1", captured.body["temperature"])
	}
	if captured.body["max_tokens"] != float64(4000) {
		t.Errorf("max_tokens = %v, want 4000", captured.body["max_tokens"])
	}

	messages, ok := captured.body["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("messages = %#v, want one message", captured.body["messages"])
	}
	msg := messages[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "Classify: I love it" {
		t.Errorf("message = %#v", msg)
	}
}

func TestOpenAIAdapter_Process_TextReply(t *testing.T) {
	server := newTestServer(t, http.StatusOK, completionWithContent(t, "not json"), nil, nil)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	resp, err := adapter.Process(context.Background(), "hello", providers.ProcessOptions{Provider: "openai"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := map[string]any{"text": "not json"}
	if !reflect.DeepEqual(resp.Value(), want) {
		t.Errorf("Value() = %#v, want %#v", resp.Value(), want)
	}
}

func TestOpenAIAdapter_Process_EmptyChoices(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"id":"chatcmpl-empty","object":"chat.completion","choices":[]}`, nil, nil)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	resp, err := adapter.Process(context.Background(), "hello", providers.ProcessOptions{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := map[string]any{"text": ""}
	if !reflect.DeepEqual(resp.Value(), want) {
		t.Errorf("Value() = %#v, want %#v", resp.Value(), want)
	}
}

func TestOpenAIAdapter_Process_Overrides(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, completionWithContent(t, "ok"), &captured, nil)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL + "/"})
	opts := providers.ProcessOptions{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: ptr(0.0),
		MaxTokens:   ptr(int64(64)),
		Extra:       map[string]any{"dimension": "topics", "sectionIndex": 2},
	}

	if _, err := adapter.Process(context.Background(), "hello", opts); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if captured.body["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v, want gpt-4o-mini", captured.body["model"])
	}
	if captured.body["temperature"] != float64(0) {
		t.Errorf("temperature = %v, want 0", captured.body["temperature"])
	}
	if captured.body["max_tokens"] != float64(64) {
		t.Errorf("max_tokens = %v, want 64", captured.body["max_tokens"])
	}
	if _, leaked := captured.body["dimension"]; leaked {
		t.Error("passthrough option was sent upstream")
	}
}

func TestOpenAIAdapter_Process_IgnoresEnvironment(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "http://127.0.0.1:1/v1")
	t.Setenv("OPENAI_ORG_ID", "org-from-env")
	t.Setenv("OPENAI_PROJECT_ID", "proj-from-env")

	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, completionWithContent(t, "ok"), &captured, nil)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:  "sk-config",
		BaseURL: server.URL,
		Headers: map[string]string{"OpenAI-Organization": "org-from-config"},
	})
	if _, err := adapter.Process(context.Background(), "hello", providers.ProcessOptions{}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if captured.authorization != "Bearer sk-config" {
		t.Errorf("Authorization = %q, want Bearer sk-config", captured.authorization)
	}
	if captured.organization != "org-from-config" {
		t.Errorf("OpenAI-Organization = %q, want org-from-config", captured.organization)
	}
	if captured.project != "" {
		t.Errorf("OpenAI-Project = %q, want none", captured.project)
	}
}

func TestOpenAIAdapter_Process_UpstreamError(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusInternalServerError,
		`{"error":{"message":"The server had an error","type":"server_error"}}`, nil, &calls)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	_, err := adapter.Process(context.Background(), "hello", providers.ProcessOptions{Provider: "openai"})
	if err == nil {
		t.Fatal("Process() expected error")
	}

	if !errors.Is(err, providers.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
	var upstreamErr *providers.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("error should be *providers.UpstreamError, got %T", err)
	}
	if upstreamErr.Provider != "openai" || upstreamErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("UpstreamError = %+v", upstreamErr)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want exactly 1", got)
	}
}

func TestOpenAIAdapter_Process_Cancelled(t *testing.T) {
	server := newTestServer(t, http.StatusOK, completionWithContent(t, "ok"), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	_, err := adapter.Process(ctx, "hello", providers.ProcessOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
