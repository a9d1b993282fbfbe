package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/mockdata"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/redis"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyUsers wraps the fixture and lets a test force failures.
type flakyUsers struct {
	catalog.UserGateway
	logoutErr   error
	userInfoErr error
	logoutCalls int
	// opaqueToken replaces the access token Login hands out.
	opaqueToken string
}

func (f *flakyUsers) Login(ctx context.Context, creds catalog.Credentials) (catalog.TokenPair, error) {
	pair, err := f.UserGateway.Login(ctx, creds)
	if err == nil && f.opaqueToken != "" {
		pair.AccessToken = f.opaqueToken
	}
	return pair, err
}

func (f *flakyUsers) Logout(ctx context.Context, caller catalog.Caller, refreshToken string) error {
	f.logoutCalls++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	return f.UserGateway.Logout(ctx, caller, refreshToken)
}

func (f *flakyUsers) UserInfo(ctx context.Context, caller catalog.Caller) (catalog.User, error) {
	if f.userInfoErr != nil {
		return catalog.User{}, f.userInfoErr
	}
	return f.UserGateway.UserInfo(ctx, caller)
}

type harness struct {
	svc   Service
	users *flakyUsers
	kv    *redis.Client
}

func newHarness(t *testing.T) harness {
	t.Helper()
	users := &flakyUsers{UserGateway: mockdata.New(mockdata.WithLatency(0))}
	kv := redis.NewMemory()
	svc, err := NewService(ServiceParams{
		Users:  users,
		Store:  kv,
		TTL:    time.Hour,
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	return harness{svc: svc, users: users, kv: kv}
}

func (h harness) stored(t *testing.T, sid, name string) string {
	t.Helper()
	v, err := h.kv.Get(context.Background(), h.kv.SessionKey(sid, name))
	if errors.Is(err, redis.Nil) {
		return ""
	}
	require.NoError(t, err)
	return v
}

var demoCreds = catalog.Credentials{Username: mockdata.DemoUsername, Password: mockdata.DemoPassword}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestLoginStoresTokensAndReturnsUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.svc.Login(ctx, "sid", demoCreds)
	require.NoError(t, err)
	assert.EqualValues(t, "1", user.ID)
	assert.Equal(t, "user@example.com", user.Email)

	assert.NotEmpty(t, h.stored(t, "sid", KeyAccessToken))
	assert.NotEmpty(t, h.stored(t, "sid", KeyRefreshToken))
	assert.Equal(t, "1", h.stored(t, "sid", KeyUserID))

	restored, err := h.svc.Restore(ctx, "sid")
	require.NoError(t, err)
	require.True(t, restored.Authenticated())
	assert.False(t, restored.Loading)
	assert.Equal(t, "testuser", restored.User.Username)
}

func TestLoginFailureStoresNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Login(context.Background(), "sid", catalog.Credentials{Username: "testuser", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
	assert.Empty(t, h.stored(t, "sid", KeyUserID))
}

func TestLoginWithCancelledContextSkipsMutation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Login(ctx, "sid", demoCreds)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
}

func TestLoginKeepsSessionWhenUserInfoFails(t *testing.T) {
	h := newHarness(t)
	h.users.userInfoErr = pkgerrors.New(pkgerrors.CodeDependency, "user-service unavailable")

	user, err := h.svc.Login(context.Background(), "sid", demoCreds)
	require.NoError(t, err)
	assert.EqualValues(t, "1", user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.NotEmpty(t, h.stored(t, "sid", KeyAccessToken))
}

func TestLogoutClearsStateEvenWhenServerFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Login(ctx, "sid", demoCreds)
	require.NoError(t, err)

	h.users.logoutErr = pkgerrors.New(pkgerrors.CodeDependency, "user-service unavailable")
	require.NoError(t, h.svc.Logout(ctx, "sid"))
	assert.Equal(t, 1, h.users.logoutCalls)

	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
	assert.Empty(t, h.stored(t, "sid", KeyRefreshToken))
	assert.Empty(t, h.stored(t, "sid", KeyUserID))

	restored, err := h.svc.Restore(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, restored.Authenticated())
}

func TestLogoutWithoutRefreshTokenSkipsServer(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Logout(context.Background(), "sid"))
	assert.Zero(t, h.users.logoutCalls)
}

func TestLoginAcceptsOpaqueTokenWhenSessionKnowsUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.users.opaqueToken = "opaque-access-token"
	require.NoError(t, h.kv.Set(ctx, h.kv.SessionKey("sid", KeyUserID), "1", time.Hour))

	user, err := h.svc.Login(ctx, "sid", demoCreds)
	require.NoError(t, err)
	assert.EqualValues(t, "1", user.ID)
	assert.Equal(t, "opaque-access-token", h.stored(t, "sid", KeyAccessToken))

	identity, err := h.svc.Current(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, identity.Authenticated(), "an opaque token does not reset the session")
	assert.EqualValues(t, "1", identity.UserID)
}

func TestLoginRejectsOpaqueTokenForUnknownUser(t *testing.T) {
	h := newHarness(t)
	h.users.opaqueToken = "opaque-access-token"

	_, err := h.svc.Login(context.Background(), "sid", demoCreds)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
}

func TestRestoreWithoutTokensIsAnonymous(t *testing.T) {
	h := newHarness(t)
	restored, err := h.svc.Restore(context.Background(), "fresh")
	require.NoError(t, err)
	assert.False(t, restored.Authenticated())
}

func TestRestoreClearsRejectedTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Login(ctx, "sid", demoCreds)
	require.NoError(t, err)

	h.users.userInfoErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "token revoked")
	restored, err := h.svc.Restore(ctx, "sid")
	require.NoError(t, err, "restore failures are silent")
	assert.False(t, restored.Authenticated())
	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
}

func TestRestoreClearsGarbageToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, h.kv.SessionKey("sid", KeyAccessToken), "not-a-jwt", time.Hour))

	restored, err := h.svc.Restore(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, restored.Authenticated())
	assert.Empty(t, h.stored(t, "sid", KeyAccessToken))
}

func TestCurrentResolvesIdentityFromClaims(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 42,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, h.kv.Set(ctx, h.kv.SessionKey("sid", KeyAccessToken), token, time.Hour))

	identity, err := h.svc.Current(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, identity.Authenticated())
	assert.EqualValues(t, "42", identity.UserID)
	assert.Equal(t, token, identity.Caller().AccessToken)
}

func TestCurrentResetsExpiredToken(t *testing.T) {
	users := &flakyUsers{UserGateway: mockdata.New(mockdata.WithLatency(0))}
	kv := redis.NewMemory()
	now := time.Now()
	svc, err := NewService(ServiceParams{
		Users:  users,
		Store:  kv,
		JWT:    config.JWTConfig{},
		TTL:    time.Hour,
		Logger: logger.Nop(),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	ctx := context.Background()
	_, err = svc.Login(ctx, "sid", demoCreds)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	identity, err := svc.Current(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, identity.Authenticated())
	_, err = kv.Get(ctx, kv.SessionKey("sid", KeyAccessToken))
	assert.ErrorIs(t, err, redis.Nil)
}
