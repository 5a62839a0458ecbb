// internal/tenant/cache.go
//
// Resolution caches.  MemoryCache is process-local and bounded by TTL and
// an optional entry cap.  RedisCache shares answers between replicas and
// stores negatives as the JSON literal null.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/cache"
	"github.com/yanizio/frontdoor/internal/metrics"
)

// DefaultTTL is the lifetime of positive and negative resolutions.
const DefaultTTL = 60 * time.Second

// Cache memoises resolutions by host key.  found=false means absent or
// expired; found=true with a nil bundle is a cached negative.
type Cache interface {
	Get(ctx context.Context, key string) (bundle *Bundle, found bool)
	Set(ctx context.Context, key string, bundle *Bundle)
}

//
// In-process cache
//

// MemoryCache is the default process-local Cache.
type MemoryCache struct {
	ttl *cache.TTL[string, *Bundle]
}

// NewMemoryCache returns a MemoryCache.  maxEntries <= 0 leaves it
// unbounded; clk == nil uses the wall clock.
func NewMemoryCache(ttl time.Duration, maxEntries int, clk clock.Clock) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: cache.New[string, *Bundle](ttl, maxEntries, clk)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Bundle, bool) {
	b, ok := c.ttl.Get(key)
	metrics.CacheEntries.Set(float64(c.ttl.Len()))
	return b, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, b *Bundle) {
	if n := c.ttl.Set(key, b); n > 0 {
		metrics.CacheEvictions.Add(float64(n))
	}
	metrics.CacheEntries.Set(float64(c.ttl.Len()))
}

// Len reports stored entries, expired ones included.
func (c *MemoryCache) Len() int { return c.ttl.Len() }

//
// Redis cache
//

// RedisCache shares resolutions between processes.  Redis failures degrade
// to misses and dropped writes.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewRedisCache returns a RedisCache storing keys as prefix+hostKey.
func NewRedisCache(rdb redis.UniversalClient, prefix string, ttl time.Duration, log *zap.SugaredLogger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

var jsonNull = []byte("null")

func (c *RedisCache) Get(ctx context.Context, key string) (*Bundle, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warnw("redis cache get failed", "host", key, "err", err)
		return nil, false
	}
	if string(raw) == string(jsonNull) {
		return nil, true
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		c.log.Warnw("redis cache entry unreadable", "host", key, "err", err)
		return nil, false
	}
	return &b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, b *Bundle) {
	raw := jsonNull
	if b != nil {
		var err error
		if raw, err = json.Marshal(b); err != nil {
			c.log.Warnw("redis cache encode failed", "host", key, "err", err)
			return
		}
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warnw("redis cache set failed", "host", key, "err", err)
	}
}
