package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryCmdable struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memoryEntry
}

func newMemoryCmdable(now func() time.Time) *memoryCmdable {
	return &memoryCmdable{now: now, data: make(map[string]memoryEntry)}
}

func (m *memoryCmdable) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *memoryCmdable) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (m *memoryCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCmdable) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: stringify(value), expiresAt: m.expiry(ttl)}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(entry.value, nil)
}

func (m *memoryCmdable) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = memoryEntry{value: stringify(value), expiresAt: m.expiry(ttl)}
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, _ := m.lookup(key)
	var current int64
	if entry.value != "" {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return redis.NewIntResult(0, fmt.Errorf("value at %s is not an integer", key))
		}
		current = parsed
	}
	current++
	entry.value = strconv.FormatInt(current, 10)
	m.data[key] = entry
	return redis.NewIntResult(current, nil)
}

func (m *memoryCmdable) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return redis.NewBoolResult(false, nil)
	}
	entry.expiresAt = m.expiry(ttl)
	m.data[key] = entry
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.lookup(key); ok {
			delete(m.data, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *memoryCmdable) delIfValue(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok || entry.value != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}
