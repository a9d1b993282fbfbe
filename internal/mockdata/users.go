package mockdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 14 * 24 * time.Hour
)

// tokenIssuer mints HS256 tokens shaped like the user service's: the user id
// travels in the "userId" claim.
type tokenIssuer struct {
	key []byte
	now func() time.Time
}

func newTokenIssuer(now func() time.Time) *tokenIssuer {
	return &tokenIssuer{key: []byte(uuid.NewString()), now: now}
}

func (t *tokenIssuer) issue(user catalog.User, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":      user.Username,
		"userId":   user.ID.String(),
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
		"tokenUse": "access",
	}
	if ttl == refreshTokenTTL {
		claims["tokenUse"] = "refresh"
		claims["jti"] = uuid.NewString()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

func (s *Store) Signup(ctx context.Context, req catalog.SignupRequest) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeUsername(req.Username)
	if key == "" || req.Password == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	if _, exists := s.accounts[key]; exists {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "username already taken")
	}
	for _, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, req.Email) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
		}
	}
	role := req.Role
	if role == "" {
		role = "USER"
	}
	user := catalog.User{
		ID:       s.newID(&s.nextUserID),
		Email:    req.Email,
		Username: strings.TrimSpace(req.Username),
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     role,
		IsAdmin:  role == "ADMIN",
	}
	s.accounts[key] = &account{user: user, password: req.Password}
	return "signup complete", nil
}

func (s *Store) Login(ctx context.Context, creds catalog.Credentials) (catalog.TokenPair, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.TokenPair{}, err
	}
	s.mu.Lock()
	acct, ok := s.accounts[normalizeUsername(creds.Username)]
	s.mu.Unlock()
	if !ok || acct.password != creds.Password {
		return catalog.TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
	}
	access, err := s.tokens.issue(acct.user, accessTokenTTL)
	if err != nil {
		return catalog.TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign access token")
	}
	refresh, err := s.tokens.issue(acct.user, refreshTokenTTL)
	if err != nil {
		return catalog.TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign refresh token")
	}
	return catalog.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Store) Logout(ctx context.Context, caller catalog.Caller, refreshToken string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if refreshToken == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token required")
	}
	return nil
}

func (s *Store) UserInfo(ctx context.Context, caller catalog.Caller) (catalog.User, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.User{}, err
	}
	if caller.UserID == "" {
		return catalog.User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id header required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID == caller.UserID {
			return acct.user, nil
		}
	}
	return catalog.User{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("user %s not found", caller.UserID))
}

func (s *Store) SendVerificationEmail(ctx context.Context, email string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if !strings.Contains(email, "@") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	return "verification email sent", nil
}

func (s *Store) VerifyEmail(ctx context.Context, token string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "verification token is required")
	}
	return "email verified", nil
}
