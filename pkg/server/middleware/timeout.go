package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request with a deadline on its context. Handlers and
// everything below them observe the cancellation; in-flight provider calls
// are cancelled, not abandoned.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
