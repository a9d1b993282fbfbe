package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/redis"
)

const checkoutPattern = "/api/v1/checkout"

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func checkoutRequest(key, body string) *http.Request {
	req := requestWithPattern(http.MethodPost, checkoutPattern, checkoutPattern, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req.WithContext(WithSessionID(req.Context(), "sid-1"))
}

type countingHandler struct {
	calls  int
	status int
	body   string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(h.body))
}

func TestGuardedRoutes(t *testing.T) {
	assert.True(t, guarded(http.MethodPost, checkoutPattern))
	assert.False(t, guarded(http.MethodGet, checkoutPattern))
	assert.False(t, guarded(http.MethodPost, "/api/v1/cart/items"))
	assert.False(t, guarded(http.MethodPost, ""))
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPattern(http.MethodPost, "/api/v1/cart/items", "/api/v1/cart/items", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyRequiresKey(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	assert.Zero(t, next.calls)
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated, body: `{"data":{"orderId":"3"}}`}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest("abc", `{"paymentMethod":"card"}`))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest("abc", `{"paymentMethod":"card"}`))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, `{"data":{"orderId":"3"}}`, second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated, body: `{}`}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `{"paymentMethod":"card"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("abc", `{"paymentMethod":"bank"}`))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	next := &countingHandler{status: http.StatusBadGateway, body: `{}`}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `{}`))
	next.status = http.StatusCreated
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("abc", `{}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := redis.NewMemory()
	var duplicate *httptest.ResponseRecorder
	var handler http.Handler
	calls := 0
	handler = Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// A second submit arrives while the first is still in flight.
			duplicate = httptest.NewRecorder()
			handler.ServeHTTP(duplicate, checkoutRequest("abc", `{}`))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("abc", `{}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, duplicate)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, duplicate))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyScopesKeysPerSession(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated, body: `{}`}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `{}`))
	other := checkoutRequest("abc", `{}`)
	other = other.WithContext(WithSessionID(other.Context(), "sid-2"))
	handler.ServeHTTP(httptest.NewRecorder(), other)

	assert.Equal(t, 2, next.calls)
}
