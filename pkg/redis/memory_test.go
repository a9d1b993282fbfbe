package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiresKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	client := newClockedMemory(&now)

	require.NoError(t, client.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)

	now = now.Add(time.Minute)
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, Nil)
}

func TestMemoryStoreSetNX(t *testing.T) {
	ctx := context.Background()
	client := NewMemory()

	ok, err := client.SetNX(ctx, "idem", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = client.SetNX(ctx, "idem", "2", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := client.Get(ctx, "idem")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.NoError(t, client.Ping(ctx))
}

func TestMemoryStoreIncrRejectsNonInteger(t *testing.T) {
	ctx := context.Background()
	client := NewMemory()
	require.NoError(t, client.Set(ctx, "k", "abc", 0))
	_, err := client.IncrWithTTL(ctx, "k", time.Minute)
	assert.Error(t, err)
}
