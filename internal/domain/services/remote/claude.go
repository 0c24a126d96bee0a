package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const claudeBaseURL = "https://api.anthropic.com"

// ClaudeProvider calls the Anthropic messages API
type ClaudeProvider struct {
	cfg        Config
	httpClient *http.Client
}

func (p *ClaudeProvider) Name() string  { return ProviderClaude }
func (p *ClaudeProvider) Model() string { return p.cfg.Model }

// Complete sends the prompt with the classifier system prompt
func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = claudeBaseURL
	}

	reqBody := map[string]interface{}{
		"model":       p.cfg.Model,
		"max_tokens":  p.cfg.MaxTokens,
		"temperature": p.cfg.Temperature,
		"system":      systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := postJSON(ctx, p.httpClient, ProviderClaude, strings.TrimRight(base, "/")+"/v1/messages", headers, reqBody, &claudeResp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range claudeResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &UpstreamError{Provider: ProviderClaude, StatusCode: http.StatusOK, Err: fmt.Errorf("no text content in response")}
	}
	return sb.String(), nil
}
