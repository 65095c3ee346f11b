package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mcoot/rasync/internal/api/apierr"
)

// Auth creates middleware that requires the configured API token. An empty
// token disables the check, which is the default for a daemon bound to
// localhost.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := extractToken(r)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the API token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource cannot set headers, so the stream accepts a query parameter
	return r.URL.Query().Get("token")
}
