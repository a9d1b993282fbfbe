package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashmarket/storefront/pkg/config"
)

func newClockedMemory(now *time.Time) *Client {
	return &Client{store: newMemoryCmdable(func() time.Time { return *now })}
}

func TestIncrWithTTLStartsWindowOnFirstHit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	client := newClockedMemory(&now)
	key := client.RateLimitKey("login:ip:10.0.0.1")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		now = now.Add(10 * time.Second)
	}

	// Later hits must not push the window out; it closes a minute after the first.
	now = time.Date(2026, 3, 1, 9, 1, 0, 0, time.UTC)
	got, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSessionValueLifecycle(t *testing.T) {
	ctx := context.Background()
	client := NewMemory()

	key := client.SessionKey("sid-1", "accessToken")
	require.NoError(t, client.Set(ctx, key, "token-value", 10*time.Minute))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "token-value", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, Nil)
	assert.NoError(t, client.Del(ctx))
}

func TestDelIfValueOnlyRemovesOwnedKey(t *testing.T) {
	ctx := context.Background()
	client := NewMemory()
	require.NoError(t, client.Set(ctx, "sf:cron-worker:lock:dev", "owner-a", time.Minute))

	deleted, err := client.DelIfValue(ctx, "sf:cron-worker:lock:dev", "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = client.DelIfValue(ctx, "sf:cron-worker:lock:dev", "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.DelIfValue(ctx, "sf:cron-worker:lock:dev", "owner-a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "sf:idempotency:checkout:abc", client.IdempotencyKey("checkout", "abc"))
	assert.Equal(t, "sf:rate_limit:login", client.RateLimitKey("login"))
	assert.Equal(t, "sf:session:abc:cart", client.SessionKey("abc", "cart"))
	assert.Equal(t, "sf:session:abc", client.SessionKey("abc", " "))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	_, err := client.DelIfValue(ctx, "k", "v")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}
