// Package remote asks a hosted language model for a second opinion on content
// and normalizes its free-text reply into an AnalysisResult.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Supported providers
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// maxErrorBody bounds how much of an upstream error body ends up in an error message
const maxErrorBody = 512

// Provider sends a single prompt to a hosted model and returns its text reply.
// Transport and HTTP failures are returned as *UpstreamError.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds remote classifier configuration
type Config struct {
	Provider    string // gemini, claude, openai
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider's public endpoint
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderClaude:
			c.Model = "claude-3-5-sonnet-20241022"
		case ProviderOpenAI:
			c.Model = "gpt-4o-mini"
		default:
			c.Model = "gemini-1.5-flash"
		}
	}
}

// ErrUnsupportedProvider is returned by NewProvider for unknown provider names
var ErrUnsupportedProvider = errors.New("unsupported remote provider")

// ErrMissingAPIKey is returned by NewProvider when no key is configured
var ErrMissingAPIKey = errors.New("remote provider API key is not set")

// NewProvider builds the provider named in cfg
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
	}
	cfg.applyDefaults()

	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case ProviderGemini:
		return &GeminiProvider{cfg: cfg, httpClient: httpClient}, nil
	case ProviderClaude:
		return &ClaudeProvider{cfg: cfg, httpClient: httpClient}, nil
	case ProviderOpenAI:
		return &OpenAIProvider{cfg: cfg, httpClient: httpClient}, nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Provider, ErrUnsupportedProvider)
	}
}

// postJSON sends body as JSON and decodes a 200 reply into out
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return &UpstreamError{Provider: provider, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &UpstreamError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return &UpstreamError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
