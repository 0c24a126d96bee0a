package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType Provider
		model    string
	}{
		{"", &GeminiProvider{}, "gemini-1.5-flash"},
		{ProviderGemini, &GeminiProvider{}, "gemini-1.5-flash"},
		{ProviderClaude, &ClaudeProvider{}, "claude-3-5-sonnet-20241022"},
		{ProviderOpenAI, &OpenAIProvider{}, "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, APIKey: "k"})
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
			assert.Equal(t, tt.model, p.Model())
		})
	}

	_, err := NewProvider(Config{Provider: "watson", APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewProvider(Config{Provider: ProviderClaude})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGeminiProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		var body struct {
			Contents []geminiContent `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Contents, 1) && assert.Len(t, body.Contents[0].Parts, 1) {
			assert.Equal(t, "hello", body.Contents[0].Parts[0].Text)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"riskScore\":"},{"text":"10}"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: ProviderGemini, APIKey: "secret", Model: "gemini-test", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"riskScore":10}`, text)
}

func TestClaudeProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, systemPrompt, body["system"])

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"riskScore\": 3}"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: ProviderClaude, APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"riskScore": 3}`, text)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: ProviderOpenAI, APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestProvider_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
		}, http.StatusTooManyRequests},
		{"bad envelope", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}, http.StatusOK},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p, err := NewProvider(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstreamUnavailable)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, ProviderOpenAI, upErr.Provider)
			assert.Equal(t, tt.status, upErr.StatusCode)
		})
	}
}

func TestProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: ProviderGemini, APIKey: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestProvider_ErrorsDoNotLeakAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	for _, name := range []string{ProviderGemini, ProviderClaude, ProviderOpenAI} {
		t.Run(name, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: name, APIKey: "SECRET-KEY-123", BaseURL: deadURL})
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), "hello")
			require.ErrorIs(t, err, ErrUpstreamUnavailable)
			assert.NotContains(t, err.Error(), "SECRET-KEY-123")
		})
	}
}
