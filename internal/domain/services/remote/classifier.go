package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"safesphere/pkg/logger"
)

// Classifier runs content through a remote Provider and normalizes the reply
type Classifier struct {
	provider Provider
	logger   *logger.Logger
}

// NewClassifier creates a remote classifier
func NewClassifier(provider Provider, log *logger.Logger) *Classifier {
	return &Classifier{
		provider: provider,
		logger:   log.WithComponent("remote-classifier"),
	}
}

// Classify asks the provider about content.
// Empty content returns ErrEmptyContent. A failed call returns an error matching
// ErrUpstreamUnavailable. A reply that cannot be parsed is not an error: it yields
// a fallback Outcome.
func (c *Classifier) Classify(ctx context.Context, content string) (*Outcome, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	start := time.Now()
	text, err := c.provider.Complete(ctx, BuildPrompt(content))
	if err != nil {
		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			upErr = &UpstreamError{Provider: c.provider.Name(), Err: err}
		}
		c.logger.Error().
			Err(upErr).
			Str("provider", c.provider.Name()).
			Int("status", upErr.StatusCode).
			Msg("remote classification failed")
		return nil, upErr
	}

	out := ParseReply(text)
	out.Provider = c.provider.Name()
	out.Model = c.provider.Model()

	if out.IsFallback() {
		c.logger.Warn().
			Str("provider", out.Provider).
			Str("reason", string(out.Reason)).
			Int("reply_length", len(text)).
			Msg("unusable model reply, returning fallback")
	} else {
		c.logger.Debug().
			Str("provider", out.Provider).
			Int("risk_score", out.Result.RiskScore).
			Dur("duration", time.Since(start)).
			Msg("remote classification complete")
	}

	return out, nil
}
