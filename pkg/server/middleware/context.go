// Package middleware provides the HTTP middleware chain: panic recovery,
// request logging, request IDs, CORS, and per-request timeouts.
package middleware

// contextKey is a private type for context values set by this package.
type contextKey string

const (
	// RequestIDKey is the context key holding the request ID.
	RequestIDKey contextKey = "request_id"
)
