package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/security"
)

// maxRateLimitBody caps how much of a sign-in body is buffered to find the
// username.
const maxRateLimitBody = 64 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy throttles one sign-in surface with a fixed window per
// client address and per username. A zero limit turns that counter off.
type AuthRateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int
	idLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, idLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, idLimit: idLimit}
}

// LoginRateLimitPolicy guards POST /api/v1/auth/login.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginIDLimit)
}

// rateCounter is one fixed-window counter a request is charged against.
type rateCounter struct {
	scope string
	id    string
	limit int
}

func (p AuthRateLimitPolicy) counters(r *http.Request) ([]rateCounter, error) {
	var out []rateCounter
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, rateCounter{scope: "ip", id: ip, limit: p.ipLimit})
		}
	}
	if p.idLimit > 0 {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		// Usernames only enter redis keys as a digest.
		if username := usernameFrom(body); username != "" {
			out = append(out, rateCounter{scope: "user", id: security.FingerprintString(username), limit: p.idLimit})
		}
	}
	return out, nil
}

// AuthRateLimit rejects a sign-in with 429 and Retry-After once any of the
// policy's counters passes its limit within the window.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.window <= 0 || (policy.ipLimit <= 0 && policy.idLimit <= 0) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			counters, err := policy.counters(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			for _, c := range counters {
				key := store.RateLimitKey(policy.name + ":" + c.scope + ":" + c.id)
				count, err := store.IncrWithTTL(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					policy.reject(ctx, logg, w, c, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, c rateCounter, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   p.name,
			"scope":    c.scope,
			"key_id":   c.id,
			"attempts": count,
			"limit":    c.limit,
		}), "auth.rate_limited")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many sign-in attempts, try again later"))
}

// clientIP takes the first parseable X-Forwarded-For hop set by the load
// balancer, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(hop)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func usernameFrom(payload []byte) string {
	var body struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Username))
}
