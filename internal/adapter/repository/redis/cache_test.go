package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `[{"code":"642","class":"EXPENSE"}]`

func TestCache_RoundTripUnderDefaultPrefix(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client, "")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "chart:v1", []byte(chartJSON), time.Minute))

	val, err := cache.Get(ctx, "chart:v1")
	require.NoError(t, err)
	assert.JSONEq(t, chartJSON, string(val))
	assert.True(t, mr.Exists(defaultCachePrefix+"chart:v1"))
}

func TestCache_MissAndExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client, "test:")
	ctx := context.Background()

	val, err := cache.Get(ctx, "absent")
	require.NoError(t, err, "a miss is not an error")
	assert.Nil(t, val)

	require.NoError(t, cache.Set(ctx, "chart:v1", []byte(chartJSON), time.Minute))
	mr.FastForward(2 * time.Minute)

	val, err = cache.Get(ctx, "chart:v1")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCache_DeleteInvalidates(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client, "test:")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "chart:v1", []byte(chartJSON), 0))
	require.NoError(t, cache.Delete(ctx, "chart:v1"))
	assert.False(t, mr.Exists("test:chart:v1"))
}

func TestCache_Unavailable(t *testing.T) {
	client, mr := newTestRedisClient(t)
	mr.Close()

	_, err := NewCache(client, "test:").Get(context.Background(), "chart:v1")
	assert.Error(t, err)
}
