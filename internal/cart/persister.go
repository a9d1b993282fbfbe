package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/redis"
)

// StorageKey is the fixed name the cart is stored under within a session.
const StorageKey = "cart"

// Persister loads and saves a session's cart snapshot.
type Persister interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
}

// RedisPersister stores the JSON snapshot at sf:session:<sid>:cart.
type RedisPersister struct {
	kv   redis.KV
	ttl  time.Duration
	logg *logger.Logger
}

func NewRedisPersister(kv redis.KV, ttl time.Duration, logg *logger.Logger) *RedisPersister {
	return &RedisPersister{kv: kv, ttl: ttl, logg: logg}
}

// Load returns the stored cart, or an empty cart when nothing is stored. A
// snapshot that no longer decodes is discarded rather than failing the page.
func (p *RedisPersister) Load(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := p.kv.Get(ctx, p.kv.SessionKey(sessionID, StorageKey))
	if errors.Is(err, redis.Nil) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		if p.logg != nil {
			p.logg.Warn(p.logg.WithField(ctx, "decode_error", err.Error()), "discarding unreadable cart snapshot")
		}
		return Cart{}, nil
	}
	return c, nil
}

// Save writes the snapshot and refreshes its TTL.
func (p *RedisPersister) Save(ctx context.Context, sessionID string, c Cart) error {
	key := p.kv.SessionKey(sessionID, StorageKey)
	if c.IsEmpty() {
		if err := p.kv.Del(ctx, key); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := p.kv.Set(ctx, key, payload, p.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
