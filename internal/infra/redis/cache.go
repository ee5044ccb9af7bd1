package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores loaded values in Redis under "{prefix}:cache:{key}" and falls
// back to the loader on a miss. Concurrent misses in this process share one load.
type Cache struct {
	client redis.UniversalClient
	prefix string
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCache(client redis.UniversalClient, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// A ttl <= 0 caches without expiry. Redis read failures fall through to load.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if v, err := c.client.Get(ctx, c.key(key)).Bytes(); err == nil {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if v, err := c.client.Get(ctx, c.key(key)).Bytes(); err == nil {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if err := c.client.Set(ctx, c.key(key), v, c.ttlWithJitter(ttl)).Err(); err != nil {
			slog.WarnContext(ctx, "redis cache: store failed", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete drops key so the next GetOrLoad reloads it.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (c *Cache) key(key string) string {
	if c.prefix == "" {
		return "cache:" + key
	}
	return c.prefix + ":cache:" + key
}

func (c *Cache) ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
