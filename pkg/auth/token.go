package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flashmarket/storefront/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrNoUserID is returned when a token carries neither the configured user id
// claim nor a subject.
var ErrNoUserID = errors.New("token carries no user id")

// InspectAccessToken reads the claims of an access token issued by the user
// service. With a configured secret the signature (and issuer, when set) is
// verified along with exp; otherwise the claims are decoded as-is.
func InspectAccessToken(cfg config.JWTConfig, tokenString string) (*TokenInfo, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("token is required")
	}

	claims := jwt.MapClaims{}
	if cfg.Secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("decoding jwt: %w", err)
		}
	} else {
		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("verifying jwt: %w", err)
		}
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}

	claimName := cfg.UserIDClaim
	if claimName == "" {
		claimName = "userId"
	}
	info.UserID = claimString(claims[claimName])
	if info.UserID == "" {
		info.UserID = info.Subject
	}
	if info.UserID == "" {
		return info, ErrNoUserID
	}
	return info, nil
}

// claimString normalizes ids that the user service may encode as numbers.
func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
