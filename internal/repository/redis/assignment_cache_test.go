package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AssignmentCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewAssignmentCache(client, ttl), mr
}

func TestAssignmentCache_GetSet(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "exp-1", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "exp-1", "user-1", "arm-2"))

	armID, ok, err := cache.Get(ctx, "exp-1", "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "arm-2", armID)

	assert.Equal(t, time.Hour, mr.TTL("experiment:exp-1:assignment:user-1"))
}

func TestAssignmentCache_Expires(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "exp-1", "user-1", "arm-1"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "exp-1", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignmentCache_DefaultTTL(t *testing.T) {
	cache, _ := newTestCache(t, 0)
	assert.Equal(t, defaultAssignmentTTL, cache.ttl)
}

func TestAssignmentCache_ServerDown(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "exp-1", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get assignment from Redis")
}
