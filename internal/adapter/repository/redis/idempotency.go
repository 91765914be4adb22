package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/periodclose/internal/usecase"
)

const defaultIdempotencyPrefix = "periodclose:idempotency:"

// PendingMarker is stored under a key while the first request is still running.
const PendingMarker = usecase.IdempotencyPending

// releasePending deletes KEYS[1] only while it still holds the pending marker,
// so a late failure cannot drop a response another request already stored.
var releasePending = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore keeps the responses of posting requests keyed by their
// Idempotency-Key header.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore namespaces keys under prefix, or the service default when empty.
func NewIdempotencyStore(client *redis.Client, prefix string) *IdempotencyStore {
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}

	return &IdempotencyStore{client: client, prefix: prefix}
}

// CheckAndSet claims key for the caller. When the key is already taken it
// reports true and the stored value, which is PendingMarker while the owner
// is still working.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := response
	if value == nil {
		value = []byte(PendingMarker)
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as taken so the caller retries.
		return true, []byte(PendingMarker), nil
	}
	if err != nil {
		return false, nil, err
	}

	return true, existing, nil
}

// Update replaces the value stored under key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release frees a key still marked pending so a failed posting can be retried
// with it. Completed responses are left in place.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return releasePending.Run(ctx, s.client, []string{s.prefix + key}, PendingMarker).Err()
}
