package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent is returned when there is nothing to classify
	ErrEmptyContent = errors.New("content is required")

	// ErrUpstreamUnavailable matches every *UpstreamError
	ErrUpstreamUnavailable = errors.New("remote classifier unavailable")
)

// UpstreamError means the remote call itself failed: network, auth, quota, or a bad envelope.
// It is distinct from a reply that arrived but could not be parsed.
type UpstreamError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstreamUnavailable) true for any upstream failure
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
