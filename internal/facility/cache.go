package facility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opencourt/receptionist/pkg/logging"
)

// Reader loads a facility with its config. Both Repository and Cache
// satisfy it, so callers take whichever is wired.
type Reader interface {
	GetWithConfig(ctx context.Context, id uuid.UUID) (*WithConfig, error)
}

// Cache is a read-through redis cache in front of a Reader. Cache failures
// degrade to direct reads; only the source errors are surfaced.
type Cache struct {
	reader Reader
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache wraps reader with a redis cache. A nil client disables caching.
func NewCache(reader Reader, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{reader: reader, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *Cache) key(id uuid.UUID) string {
	return fmt.Sprintf("facility:config:%s", id)
}

// GetWithConfig returns the cached facility+config, falling back to the
// underlying reader and populating the cache on a miss.
func (c *Cache) GetWithConfig(ctx context.Context, id uuid.UUID) (*WithConfig, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, c.key(id)).Bytes()
		if err == nil {
			var cached WithConfig
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				return &cached, nil
			}
			// Corrupt entry: fall through to the source and rewrite it.
			c.logger.Warn("facility cache entry corrupt", "facility_id", id)
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("facility cache read failed", "error", err, "facility_id", id)
		}
	}

	out, err := c.reader.GetWithConfig(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := c.redis.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
				c.logger.Warn("facility cache write failed", "error", err, "facility_id", id)
			}
		}
	}
	return out, nil
}

// Invalidate drops the cached entry after a config update.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("facility cache invalidate failed", "error", err, "facility_id", id)
	}
}
