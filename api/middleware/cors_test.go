package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSOptionsNormalizeOrigins(t *testing.T) {
	opts := corsOptions([]string{" https://shop.example.com/ ", "", "https://m.shop.example.com"})
	assert.Equal(t, []string{"https://shop.example.com", "https://m.shop.example.com"}, opts.AllowedOrigins)
	assert.True(t, opts.AllowCredentials)

	assert.Equal(t, localDevOrigins, corsOptions([]string{"  "}).AllowedOrigins)
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://shop.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Idempotency-Key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, other)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
