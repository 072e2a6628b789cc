package loader

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, ttl), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newTestRedisCache(t, time.Minute)

	snap := snapshotFixture(3)
	require.NoError(t, cache.Set(context.Background(), "app-1:content-1:3", snap))

	got, err := cache.Get(context.Background(), "app-1:content-1:3")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestRedisCacheMiss(t *testing.T) {
	cache, _ := newTestRedisCache(t, time.Minute)

	_, err := cache.Get(context.Background(), "app-1:content-1:9")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheExpiry(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Second)

	require.NoError(t, cache.Set(context.Background(), "app-1:content-1:3", snapshotFixture(3)))

	mr.FastForward(2 * time.Second)

	_, err := cache.Get(context.Background(), "app-1:content-1:3")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	cache, mr := newTestRedisCache(t, 0)

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "not json"))

	_, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
