package providers

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError represents a request timeout.
// The attempt's deadline expired before the provider responded.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the deadline that expired
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// UpstreamError represents a non-2xx response from the provider.
type UpstreamError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the response body or error message, truncated
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// InvalidResponseError represents a structurally invalid provider response:
// unparseable body, missing fields, or empty generated text.
type InvalidResponseError struct {
	// Provider is the name of the provider that returned the response
	Provider string

	// Reason describes what was wrong with the response
	Reason string

	// Cause is the underlying parse error (if any)
	Cause error
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q invalid response: %s: %v", e.Provider, e.Reason, e.Cause)
	}
	return fmt.Sprintf("provider %q invalid response: %s", e.Provider, e.Reason)
}

// Unwrap returns the underlying error for error chain support.
func (e *InvalidResponseError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
// Auth errors are not transient; the orchestrator does not retry them
// against the same provider.
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// ConfigError represents an invalid provider configuration.
type ConfigError struct {
	// Provider is the provider name (or type when the name is missing)
	Provider string

	// Field is the configuration field that failed validation
	Field string

	// Message describes the problem
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q config error (%s): %s", e.Provider, e.Field, e.Message)
}

// ErrorType names an error's category for metric labels.
func ErrorType(err error) string {
	var (
		timeoutErr *TimeoutError
		upErr      *UpstreamError
		invErr     *InvalidResponseError
		authErr    *AuthError
		cfgErr     *ConfigError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &upErr):
		return "upstream"
	case errors.As(err, &invErr):
		return "invalid_response"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &cfgErr):
		return "config"
	default:
		return "other"
	}
}

// IsRetryable reports whether an attempt against the same provider is worth
// repeating. Timeouts, upstream failures, and malformed responses are
// transient; auth and config errors are not.
func IsRetryable(err error) bool {
	var (
		authErr *AuthError
		cfgErr  *ConfigError
	)
	if errors.As(err, &authErr) || errors.As(err, &cfgErr) {
		return false
	}
	return true
}
