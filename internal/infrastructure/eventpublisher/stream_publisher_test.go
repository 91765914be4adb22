package eventpublisher

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/domain"
)

func TestStreamPublisherAppendsEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	pub := NewStreamPublisher(client, "", 0)

	err := pub.Publish(ctx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "v-1",
		AggregateType: domain.AggregateTypeVoucher,
		EventType:     domain.EventTypeVoucherPosted,
		Payload:       map[string]any{"doc_no": "KC-2025-03"},
		CreatedAt:     time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "evt-1", values["event_id"])
	assert.Equal(t, domain.EventTypeVoucherPosted, values["event_type"])
	assert.Equal(t, "2025-03-31T10:00:00Z", values["created_at"])
	assert.JSONEq(t, `{"doc_no":"KC-2025-03"}`, values["payload"].(string))
}

func TestStreamPublisherRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewStreamPublisher(client, "events", 0).Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	assert.Error(t, err)
}
