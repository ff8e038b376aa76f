package contactcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chat-shim/internal/host"
	"chat-shim/internal/models"
	"chat-shim/internal/observability"
)

const keyPrefix = "chatshim:contact:"

// kvStore is the slice of the redis client this cache uses.
type kvStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache is a read-through decorator over a contact store. Every cache
// failure degrades to the wrapped store; a broken cache can never fail a
// lookup.
type Cache struct {
	inner host.ContactStore
	kv    kvStore
	ttl   time.Duration
	log   zerolog.Logger
}

var _ host.ContactStore = (*Cache)(nil)

// New wraps inner with a redis read-through cache.
func New(inner host.ContactStore, kv kvStore, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		inner: inner,
		kv:    kv,
		ttl:   ttl,
		log:   log.With().Str("component", "contactcache").Logger(),
	}
}

// GetContact serves from the cache when possible and falls back to the
// wrapped store. Only positive results are cached: a missing contact is a
// condition the self-healing lookup re-checks, so it stays uncached.
func (c *Cache) GetContact(ctx context.Context, id models.ChatID) (*models.Contact, error) {
	key := keyPrefix + id.String()

	payload, err := c.kv.Get(ctx, key).Result()
	if err == nil {
		var contact models.Contact
		if jsonErr := json.Unmarshal([]byte(payload), &contact); jsonErr == nil {
			observability.RecordContactCache("hit")
			return &contact, nil
		}
		observability.RecordContactCache("corrupt")
	} else if errors.Is(err, redis.Nil) {
		observability.RecordContactCache("miss")
	} else {
		observability.RecordContactCache("error")
		c.log.Debug().Err(err).Msg("contact cache read failed")
	}

	contact, err := c.inner.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(contact); jsonErr == nil {
		if setErr := c.kv.Set(ctx, key, raw, c.ttl).Err(); setErr != nil {
			c.log.Debug().Err(setErr).Msg("contact cache write failed")
		}
	}
	return contact, nil
}
