package auth

import (
	"time"
)

// TokenInfo is what the storefront reads out of an upstream access token.
type TokenInfo struct {
	UserID    string
	Subject   string
	ExpiresAt *time.Time
}

// Expired reports whether the token carried an exp claim that is already past.
func (t TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
