package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/types"
)

func TestRequestIDKeepsWellFormedInboundID(t *testing.T) {
	var seen string
	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(requestIDHeader, "cdn-4f2a.77:01")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "cdn-4f2a.77:01", seen)
	assert.Equal(t, "cdn-4f2a.77:01", w.Header().Get(requestIDHeader))
}

func TestRequestIDReplacesUnusableInboundID(t *testing.T) {
	for name, inbound := range map[string]string{
		"empty":    "",
		"too long": strings.Repeat("a", maxRequestIDLen+1),
		"newline":  "abc\ninjected",
		"spaces":   "two words",
	} {
		t.Run(name, func(t *testing.T) {
			var seen string
			h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logger.RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestIDHeader, inbound)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, w.Header().Get(requestIDHeader))
		})
	}
}

func TestRecovererWritesEnvelopeWithRequestID(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(RequestID(logger.Nop()), Recoverer(logger.Nop(), m))
	r.Get("/api/v1/products/{id}", func(http.ResponseWriter, *http.Request) {
		panic("nil product")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p-1", nil)
	req.Header.Set(requestIDHeader, "req-77")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "req-77", body.Error.RequestID)
	assert.NotContains(t, body.Error.Message, "nil product")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var panics float64
	for _, mf := range mfs {
		if mf.GetName() != "storefront_http_panics_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			panics += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), panics)
}

func TestRecovererReraisesAbortHandler(t *testing.T) {
	h := Recoverer(logger.Nop(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
