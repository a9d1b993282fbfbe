package middleware

import (
	"context"

	"github.com/flashmarket/storefront/internal/session"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxIdentity  contextKey = "identity"
)

// SessionIDFromContext returns the browser session id set by Session.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the resolved identity; the zero value is an
// anonymous shopper.
func IdentityFromContext(ctx context.Context) session.Identity {
	if ctx == nil {
		return session.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(session.Identity); ok {
		return v
	}
	return session.Identity{SessionID: SessionIDFromContext(ctx)}
}

func UserIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).UserID.String()
}

// WithSessionID injects the browser session id into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithIdentity injects the resolved identity into the context.
func WithIdentity(ctx context.Context, identity session.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
