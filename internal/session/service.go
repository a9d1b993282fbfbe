package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/auth"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/redis"
	"github.com/flashmarket/storefront/pkg/types"
)

const invalidCredentialsMessage = "invalid username or password"

// Session is the auth state shown to the page. Loading is true only while a
// restore is still in flight; a server-side restore always finishes before
// the response is written.
type Session struct {
	User    *catalog.User `json:"user"`
	Loading bool          `json:"loading"`
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Identity is the stored credential set for a browser session, resolved
// without calling the user service.
type Identity struct {
	SessionID   string
	UserID      types.ID
	AccessToken string
}

func (i Identity) Authenticated() bool {
	return i.AccessToken != "" && i.UserID != ""
}

// Caller returns the headers identity for upstream calls.
func (i Identity) Caller() catalog.Caller {
	return catalog.Caller{UserID: i.UserID, AccessToken: i.AccessToken}
}

// Service manages sign-in state per browser session.
type Service interface {
	Signup(ctx context.Context, req catalog.SignupRequest) (string, error)
	Login(ctx context.Context, sessionID string, creds catalog.Credentials) (catalog.User, error)
	Logout(ctx context.Context, sessionID string) error
	Restore(ctx context.Context, sessionID string) (Session, error)
	Current(ctx context.Context, sessionID string) (Identity, error)
	SendVerificationEmail(ctx context.Context, email string) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// ServiceParams groups dependencies for the session service.
type ServiceParams struct {
	Users  catalog.UserGateway
	Store  redis.KV
	JWT    config.JWTConfig
	TTL    time.Duration
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	users catalog.UserGateway
	store tokenStore
	jwt   config.JWTConfig
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user gateway required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users: params.Users,
		store: tokenStore{kv: params.Store, ttl: params.TTL},
		jwt:   params.JWT,
		logg:  params.Logger,
		now:   now,
	}, nil
}

func (s *service) Signup(ctx context.Context, req catalog.SignupRequest) (string, error) {
	return s.users.Signup(ctx, req)
}

func (s *service) SendVerificationEmail(ctx context.Context, email string) (string, error) {
	return s.users.SendVerificationEmail(ctx, email)
}

func (s *service) VerifyEmail(ctx context.Context, token string) (string, error) {
	return s.users.VerifyEmail(ctx, token)
}

// Login exchanges credentials for tokens and stores them for the session.
// Nothing is stored when the exchange fails or the request went away while
// it was in flight.
func (s *service) Login(ctx context.Context, sessionID string, creds catalog.Credentials) (catalog.User, error) {
	if sessionID == "" {
		return catalog.User{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	pair, err := s.users.Login(ctx, creds)
	if err != nil {
		switch pkgerrors.CodeOf(err) {
		case pkgerrors.CodeUnauthorized, pkgerrors.CodeNotFound:
			return catalog.User{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return catalog.User{}, err
	}
	if err := ctx.Err(); err != nil {
		return catalog.User{}, err
	}

	stored, err := s.store.load(ctx, sessionID)
	if err != nil {
		return catalog.User{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable")
	}
	// Claims in the new token take precedence over a stored user id. Tokens
	// without readable claims are kept as long as the session knows the user.
	var userID types.ID
	info, err := auth.InspectAccessToken(s.jwt, pair.AccessToken)
	switch {
	case err == nil:
		userID = types.ID(info.UserID)
	case stored.UserID != "":
		s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), "session.token_claims_unreadable")
		userID = stored.UserID
	default:
		return catalog.User{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user-service returned an unreadable token")
	}

	next := tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, UserID: userID}
	if err := s.store.save(ctx, sessionID, next); err != nil {
		_ = s.store.clear(context.WithoutCancel(ctx), sessionID)
		return catalog.User{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable")
	}

	ctx = s.logg.WithUserID(ctx, userID.String())
	user, err := s.users.UserInfo(ctx, catalog.Caller{UserID: userID, AccessToken: pair.AccessToken})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session.user_info_unavailable")
		return catalog.User{ID: userID, Username: creds.Username}, nil
	}
	if user.ID == "" {
		user.ID = userID
	}
	s.logg.Info(ctx, "session.login")
	return user, nil
}

// Logout revokes the refresh token upstream when one is stored, then always
// clears the local state. Upstream failures are logged only.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	stored, err := s.store.load(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session.logout_load_failed")
	}
	if stored.RefreshToken != "" {
		caller := catalog.Caller{UserID: stored.UserID, AccessToken: stored.AccessToken}
		if err := s.users.Logout(ctx, caller, stored.RefreshToken); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session.remote_logout_failed")
		}
	}
	if err := s.store.clear(context.WithoutCancel(ctx), sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable")
	}
	return nil
}

// Current resolves the stored identity from the session values alone. An
// unreadable or expired access token resets the session.
func (s *service) Current(ctx context.Context, sessionID string) (Identity, error) {
	anonymous := Identity{SessionID: sessionID}
	if sessionID == "" {
		return anonymous, nil
	}
	stored, err := s.store.load(ctx, sessionID)
	if err != nil {
		return anonymous, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable")
	}
	if stored.empty() {
		return anonymous, nil
	}
	userID, err := s.resolveUserID(stored)
	if err != nil {
		s.reset(ctx, sessionID, err)
		return anonymous, nil
	}
	return Identity{SessionID: sessionID, UserID: userID, AccessToken: stored.AccessToken}, nil
}

// Restore rebuilds the signed-in user from the stored tokens. Any failure to
// do so silently clears the tokens and yields an anonymous session.
func (s *service) Restore(ctx context.Context, sessionID string) (Session, error) {
	identity, err := s.Current(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !identity.Authenticated() {
		return Session{}, nil
	}
	ctx = s.logg.WithUserID(ctx, identity.UserID.String())
	user, err := s.users.UserInfo(ctx, identity.Caller())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Session{}, ctxErr
		}
		s.reset(ctx, sessionID, err)
		return Session{}, nil
	}
	if user.ID == "" {
		user.ID = identity.UserID
	}
	return Session{User: &user}, nil
}

func (s *service) resolveUserID(stored tokens) (types.ID, error) {
	info, err := auth.InspectAccessToken(s.jwt, stored.AccessToken)
	if err != nil && !errors.Is(err, auth.ErrNoUserID) {
		if stored.UserID != "" {
			return stored.UserID, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeStaleSession, err, "stored access token is unreadable")
	}
	if info != nil && info.Expired(s.now()) {
		return "", pkgerrors.New(pkgerrors.CodeStaleSession, "stored access token expired")
	}
	if stored.UserID != "" {
		return stored.UserID, nil
	}
	if info == nil || info.UserID == "" {
		return "", pkgerrors.New(pkgerrors.CodeStaleSession, "stored access token carries no user id")
	}
	return types.ID(info.UserID), nil
}

// reset drops the session values after a stale-session failure.
func (s *service) reset(ctx context.Context, sessionID string, cause error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"error":      cause.Error(),
		"error_code": pkgerrors.CodeOf(cause),
	})
	if err := s.store.clear(context.WithoutCancel(ctx), sessionID); err != nil {
		s.logg.Error(ctx, "session.reset_failed", err)
		return
	}
	s.logg.Info(ctx, "session.reset")
}
