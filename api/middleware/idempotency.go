package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flashmarket/storefront/api/responses"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	pkgredis "github.com/flashmarket/storefront/pkg/redis"
	"github.com/flashmarket/storefront/pkg/security"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyBody    = 1 << 20
)

// Order submission is the only storefront call that must never run twice.
var idempotentRoutes = map[string]struct{}{
	http.MethodPost + " /api/v1/checkout": {},
}

func guarded(method, pattern string) bool {
	if pattern == "" {
		return false
	}
	_, ok := idempotentRoutes[method+" "+pattern]
	return ok
}

// storedResponse is kept per key. A zero Status marks a submission that is
// still running.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency makes a repeated Idempotency-Key on a guarded route replay
// the first 2xx answer instead of running the handler again. The key is
// reserved before the handler runs, so a concurrent duplicate gets a
// conflict. A non-2xx answer frees the key for a retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !guarded(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next)
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody))
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := security.Fingerprint(body)
	key := g.store.IdempotencyKey(requestScope(r), clientKey)

	reserved, err := g.reserve(ctx, key, hash)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	if !reserved {
		g.replay(ctx, w, key, hash)
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	// The shopper already has the answer; the bookkeeping must still land.
	g.finish(context.WithoutCancel(ctx), key, hash, capture)
}

func (g *idempotencyGuard) reserve(ctx context.Context, key, hash string) (bool, error) {
	pending, err := json.Marshal(storedResponse{RequestHash: hash})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, string(pending), g.ttl)
}

func (g *idempotencyGuard) finish(ctx context.Context, key, hash string, capture *responseCapture) {
	status := capture.status
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status >= 300 {
		if err := g.store.Del(ctx, key); err != nil {
			g.logError(ctx, "idempotency.release_failed", err)
		}
		return
	}

	payload, err := json.Marshal(storedResponse{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		RequestHash: hash,
	})
	if err != nil {
		g.logError(ctx, "idempotency.marshal_failed", err)
		return
	}
	if err := g.store.Set(ctx, key, string(payload), g.ttl); err != nil {
		g.logError(ctx, "idempotency.persist_failed", err)
	}
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, key, hash string) {
	raw, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.Nil):
		// Freed by a failed first attempt between our SETNX and this read.
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request is being retried, try again"))
		return
	case err != nil:
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.Status == 0:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress"))
	default:
		h := w.Header()
		h.Set("Idempotent-Replayed", "true")
		if stored.ContentType != "" {
			h.Set("Content-Type", stored.ContentType)
		}
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// requestScope keeps one shopper's keys apart from another's.
func requestScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{SessionIDFromContext(ctx), UserIDFromContext(ctx), r.Method, r.URL.Path}, "|")
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
