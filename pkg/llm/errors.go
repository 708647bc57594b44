package llm

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned by the factory for unregistered names.
var ErrUnknownProvider = errors.New("unknown LLM provider")

// AuthenticationError maps a vendor 401.
type AuthenticationError struct {
	Provider string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: invalid API key", e.Provider)
}

// RateLimitError maps a vendor 429.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded", e.Provider)
}

// UpstreamError maps a vendor 5xx.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream error %d: %s", e.Provider, e.Status, e.Body)
}

// ProviderError is any other non-2xx vendor response, carrying the decoded
// body for diagnostics.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.Status, e.Body)
}

// TimeoutError indicates the vendor call exceeded its deadline.
type TimeoutError struct {
	Provider string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError indicates the vendor could not be reached at all.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
