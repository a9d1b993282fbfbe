package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/pkg/redis"
	"github.com/flashmarket/storefront/pkg/types"
	"go.uber.org/multierr"
)

// Names of the per-session values. They mirror what the browser client used
// to keep in local storage.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
)

// tokens is the stored client state for one browser session.
type tokens struct {
	AccessToken  string
	RefreshToken string
	UserID       types.ID
}

func (t tokens) empty() bool {
	return t.AccessToken == ""
}

// tokenStore reads and writes the session values in the key/value store.
type tokenStore struct {
	kv  redis.KV
	ttl time.Duration
}

func (s tokenStore) get(ctx context.Context, sessionID, name string) (string, error) {
	value, err := s.kv.Get(ctx, s.kv.SessionKey(sessionID, name))
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (s tokenStore) load(ctx context.Context, sessionID string) (tokens, error) {
	var (
		t    tokens
		errs error
		err  error
	)
	t.AccessToken, err = s.get(ctx, sessionID, KeyAccessToken)
	errs = multierr.Append(errs, err)
	t.RefreshToken, err = s.get(ctx, sessionID, KeyRefreshToken)
	errs = multierr.Append(errs, err)
	userID, err := s.get(ctx, sessionID, KeyUserID)
	errs = multierr.Append(errs, err)
	t.UserID = types.ID(userID)
	if errs != nil {
		return tokens{}, fmt.Errorf("load session tokens: %w", errs)
	}
	return t, nil
}

func (s tokenStore) save(ctx context.Context, sessionID string, t tokens) error {
	values := map[string]string{
		KeyAccessToken:  t.AccessToken,
		KeyRefreshToken: t.RefreshToken,
		KeyUserID:       t.UserID.String(),
	}
	for name, value := range values {
		key := s.kv.SessionKey(sessionID, name)
		if value == "" {
			if err := s.kv.Del(ctx, key); err != nil {
				return fmt.Errorf("save session %s: %w", name, err)
			}
			continue
		}
		if err := s.kv.Set(ctx, key, value, s.ttl); err != nil {
			return fmt.Errorf("save session %s: %w", name, err)
		}
	}
	return nil
}

// clear removes every session value, attempting all of them even when one
// delete fails.
func (s tokenStore) clear(ctx context.Context, sessionID string) error {
	var errs error
	for _, name := range []string{KeyAccessToken, KeyRefreshToken, KeyUserID} {
		errs = multierr.Append(errs, s.kv.Del(ctx, s.kv.SessionKey(sessionID, name)))
	}
	return errs
}
