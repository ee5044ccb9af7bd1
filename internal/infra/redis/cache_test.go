package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestCacheStoresInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewCache(newClient(mr), "trivia")

	calls := 0
	load := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`[{"id":9,"name":"General Knowledge"}]`), nil
	}

	_, err := c.GetOrLoad(context.Background(), "categories", time.Hour, load)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.True(t, mr.Exists("trivia:cache:categories"))
	require.Greater(t, mr.TTL("trivia:cache:categories"), time.Duration(0))

	// Second call should hit redis, loader not incremented.
	v, err := c.GetOrLoad(context.Background(), "categories", time.Hour, load)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.JSONEq(t, `[{"id":9,"name":"General Knowledge"}]`, string(v))
}

func TestCacheExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewCache(newClient(mr), "trivia")

	calls := 0
	load := func(context.Context) ([]byte, error) {
		calls++
		return []byte("tok"), nil
	}

	_, err := c.GetOrLoad(context.Background(), "token", time.Minute, load)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = c.GetOrLoad(context.Background(), "token", time.Minute, load)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCacheDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewCache(newClient(mr), "")

	_, err := c.GetOrLoad(context.Background(), "token", 0, func(context.Context) ([]byte, error) {
		return []byte("tok"), nil
	})
	require.NoError(t, err)
	require.True(t, mr.Exists("cache:token"))

	require.NoError(t, c.Delete(context.Background(), "token"))
	require.False(t, mr.Exists("cache:token"))
}

func newClient(mr *miniredis.Miniredis) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
}
