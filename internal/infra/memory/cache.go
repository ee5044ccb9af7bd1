package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache keeps loaded values in process memory with a jittered TTL.
// Concurrent misses for the same key share one load.
type Cache struct {
	clock func() time.Time
	sf    singleflight.Group

	mu      sync.RWMutex
	rnd     *rand.Rand
	entries map[string]cachedValue
}

type cachedValue struct {
	value     []byte
	expiresAt time.Time
}

func NewCache() *Cache {
	return newCacheWithClock(time.Now)
}

func newCacheWithClock(clock func() time.Time) *Cache {
	return &Cache{
		clock:   clock,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedValue),
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// A ttl <= 0 caches without expiry.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		entry := cachedValue{value: v}
		if ttl > 0 {
			entry.expiresAt = c.clock().Add(c.ttlWithJitter(ttl))
		}
		c.entries[key] = entry
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete drops key so the next GetOrLoad reloads it.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.value, true
}

// ttlWithJitter adds up to 10% to spread expirations. Callers hold c.mu.
func (c *Cache) ttlWithJitter(ttl time.Duration) time.Duration {
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
