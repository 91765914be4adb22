package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_ReturnsStoredResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, "")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, defaultIdempotencyPrefix+"close-2025-03", `{"status":201}`, time.Minute).Err())

	exists, resp, err := store.CheckAndSet(ctx, "close-2025-03", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.JSONEq(t, `{"status":201}`, string(resp))
}

func TestIdempotencyStore_ClaimsNewKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client, "test:")
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "alloc-1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)

	val, err := client.Get(ctx, "test:alloc-1").Result()
	require.NoError(t, err)
	assert.Equal(t, PendingMarker, val)
	assert.Equal(t, time.Minute, mr.TTL("test:alloc-1"))

	exists, resp, err = store.CheckAndSet(ctx, "alloc-1", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists, "second caller sees the claim")
	assert.Equal(t, PendingMarker, string(resp))
}

func TestIdempotencyStore_ReleaseFreesPendingKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, "test:")
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "reval-1", nil, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "reval-1"))

	exists, _, err := store.CheckAndSet(ctx, "reval-1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists, "released key can be claimed again")
}

func TestIdempotencyStore_ReleaseKeepsCompletedResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, "test:")
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "debt-1", []byte(`{"status":200}`), time.Minute))
	require.NoError(t, store.Release(ctx, "debt-1"))

	val, err := client.Get(ctx, "test:debt-1").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":200}`, val)
}
