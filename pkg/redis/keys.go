package redis

import "strings"

const (
	keyNamespace      = "sf"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
)

// IdempotencyKey is sf:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

// RateLimitKey is sf:rate_limit:<scope>.
func (c *Client) RateLimitKey(scope string) string {
	return joinKey(rateLimitPrefix, scope)
}

// SessionKey namespaces a named value under a browser session, for example
// sf:session:<sid>:cart.
func (c *Client) SessionKey(sessionID, name string) string {
	return joinKey(sessionPrefix, sessionID, name)
}

// joinKey drops blank segments so a missing scope never yields "a::b".
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
