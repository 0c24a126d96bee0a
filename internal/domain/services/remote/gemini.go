package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider calls the Gemini generateContent API
type GeminiProvider struct {
	cfg        Config
	httpClient *http.Client
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.cfg.Model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// Complete sends the prompt as a single user turn
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = geminiBaseURL
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(base, "/"), url.PathEscape(p.cfg.Model))
	headers := map[string]string{
		"x-goog-api-key": p.cfg.APIKey,
	}

	reqBody := map[string]interface{}{
		"contents": []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     p.cfg.Temperature,
			"maxOutputTokens": p.cfg.MaxTokens,
		},
	}

	var geminiResp struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := postJSON(ctx, p.httpClient, ProviderGemini, endpoint, headers, reqBody, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) == 0 {
		return "", &UpstreamError{Provider: ProviderGemini, StatusCode: http.StatusOK, Err: fmt.Errorf("no candidates in response")}
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
