package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const openAIBaseURL = "https://api.openai.com"

// OpenAIProvider calls the OpenAI chat completions API
type OpenAIProvider struct {
	cfg        Config
	httpClient *http.Client
}

func (p *OpenAIProvider) Name() string  { return ProviderOpenAI }
func (p *OpenAIProvider) Model() string { return p.cfg.Model }

// Complete sends the prompt after the classifier system message
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = openAIBaseURL
	}

	reqBody := map[string]interface{}{
		"model":       p.cfg.Model,
		"max_tokens":  p.cfg.MaxTokens,
		"temperature": p.cfg.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.cfg.APIKey,
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, p.httpClient, ProviderOpenAI, strings.TrimRight(base, "/")+"/v1/chat/completions", headers, reqBody, &openAIResp); err != nil {
		return "", err
	}

	if len(openAIResp.Choices) == 0 {
		return "", &UpstreamError{Provider: ProviderOpenAI, StatusCode: http.StatusOK, Err: fmt.Errorf("no response from OpenAI")}
	}
	return openAIResp.Choices[0].Message.Content, nil
}
