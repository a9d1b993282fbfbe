package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/internal/session"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
)

const defaultSessionCookie = "sf_sid"

// IdentityResolver looks up the stored identity of a browser session.
type IdentityResolver interface {
	Current(ctx context.Context, sessionID string) (session.Identity, error)
}

// SessionCookie describes the browser session cookie.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session reads the browser session cookie, issuing a fresh one when it is
// missing or malformed, and attaches the session id and resolved identity to
// the request context. A session store outage degrades to an anonymous
// identity so public pages keep rendering.
func Session(cookie SessionCookie, identities IdentityResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.TrimSpace(cookie.Name)
	if name == "" {
		name = defaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(name); err == nil {
				if parsed, parseErr := uuid.Parse(c.Value); parseErr == nil {
					sid = parsed.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}
			// Refresh on every response so an active shopper keeps the cart.
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(cookie.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}

			identity := session.Identity{SessionID: sid}
			if identities != nil {
				resolved, err := identities.Current(ctx, sid)
				switch {
				case err != nil && logg != nil:
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "session.identity_unavailable")
				case err == nil:
					identity = resolved
				}
			}
			if identity.Authenticated() && logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID.String())
			}
			ctx = WithIdentity(ctx, identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a signed-in identity.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
