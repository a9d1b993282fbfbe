package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flashmarket/storefront/pkg/instance"
)

const defaultLockTTL = 5 * time.Minute

// Lock keeps two cron-worker replicas from running the same cycle.
// TryLock returns a nil unlock func when another holder has the lock.
type Lock interface {
	TryLock(ctx context.Context) (unlock func(context.Context) error, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

// RedisLock is a SET NX lease with a TTL. Each acquisition writes a fresh
// token so a holder whose lease expired cannot release its successor's.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// TTL is how long a lease lasts if it is never released.
func (l *RedisLock) TTL() time.Duration { return l.ttl }

func (l *RedisLock) TryLock(ctx context.Context) (func(context.Context) error, error) {
	token := instance.ID() + ":" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		if _, err := l.store.DelIfValue(ctx, l.key, token); err != nil {
			return fmt.Errorf("release %s: %w", l.key, err)
		}
		return nil
	}, nil
}
