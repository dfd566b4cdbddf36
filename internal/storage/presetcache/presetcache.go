// Package presetcache puts a Redis read-through cache in front of a preset
// store. Redis errors degrade to direct store reads.
package presetcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

const (
	// DefaultTTL is how long a cached preset is trusted.
	DefaultTTL = 10 * time.Minute

	keyPrefix = "diary:preset:"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Cache wraps a ports.PresetStore.
type Cache struct {
	next   ports.PresetStore
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zerolog.Logger
}

// New creates a preset cache. A non-positive ttl uses DefaultTTL.
func New(next ports.PresetStore, rdb redis.UniversalClient, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return redis.NewClient(opts), nil
}

// GetUserPreset serves from Redis when possible and fills the cache on a miss.
func (c *Cache) GetUserPreset(ctx context.Context, userID string) (*domain.UserPreset, error) {
	key := keyPrefix + userID

	raw, err := c.rdb.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		var p domain.UserPreset
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			observability.PresetCacheLookups.WithLabelValues(resultHit).Inc()
			return &p, nil
		}

		observability.PresetCacheLookups.WithLabelValues(resultError).Inc()
	case errors.Is(err, redis.Nil):
		observability.PresetCacheLookups.WithLabelValues(resultMiss).Inc()
	default:
		observability.PresetCacheLookups.WithLabelValues(resultError).Inc()
		c.logger.Debug().Err(err).Str("user_id", userID).Msg("preset cache read failed")
	}

	p, err := c.next.GetUserPreset(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, p)

	return p, nil
}

// UpsertUserPreset writes through to the store and drops the cached entry.
func (c *Cache) UpsertUserPreset(ctx context.Context, preset *domain.UserPreset) error {
	if err := c.next.UpsertUserPreset(ctx, preset); err != nil {
		return err
	}

	if err := c.rdb.Del(ctx, keyPrefix+preset.UserID).Err(); err != nil {
		c.logger.Warn().Err(err).Str("user_id", preset.UserID).Msg("preset cache invalidation failed")
	}

	return nil
}

func (c *Cache) store(ctx context.Context, key string, p *domain.UserPreset) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("preset cache write failed")
	}
}
