package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// The storefront page and the BFF live on different origins in local dev,
// so the session cookie needs credentialed CORS.
var localDevOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS allows the configured storefront origins. Blank entries are ignored
// and an empty list means the local dev servers.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(corsOptions(origins)).Handler
}

func corsOptions(origins []string) cors.Options {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = localDevOrigins
	}
	return cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After", "Idempotent-Replayed"},
		// Cookie sessions only work cross-origin with credentials.
		AllowCredentials: true,
		MaxAge:           600,
	}
}
