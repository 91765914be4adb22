package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
	"github.com/iho/periodclose/internal/usecase"
)

func voucherEvent(id, voucherID, eventType string) *domain.OutboxEvent {
	return &domain.OutboxEvent{ID: id, AggregateType: "voucher", AggregateID: voucherID, EventType: eventType}
}

func TestProcessEvents_PublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		voucherEvent("evt-1", "V1", domain.EventTypeVoucherPosted),
	}}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))

	assert.Equal(t, []string{"evt-1"}, pub.ids())
	assert.Equal(t, []string{"evt-1"}, repo.marked)
	assert.Equal(t, 1.0, testutil.ToFloat64(ep.metrics.OutboxPublished))
}

func TestProcessEvents_FailureOnlyHoldsBackItsAggregate(t *testing.T) {
	now := time.Now()
	original := "V1"
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		domain.NewVoucherPostedEvent("evt-1", &domain.Voucher{ID: original}, now),
		domain.NewVoucherPostedEvent("evt-2", &domain.Voucher{ID: "V2"}, now),
		domain.NewVoucherPostedEvent("evt-3", &domain.Voucher{ID: "V3", ReversesVoucherID: &original}, now),
	}}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("stream down")}}
	ep := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))

	assert.Equal(t, []string{"evt-2"}, pub.ids(), "evt-3 must wait for evt-1")
	assert.Equal(t, []string{"evt-2"}, repo.marked)
	assert.Equal(t, 1.0, testutil.ToFloat64(ep.metrics.OutboxErrors))
	assert.Equal(t, 1, pub.attempts["evt-1"])
	assert.Zero(t, pub.attempts["evt-3"])
}

func TestProcessEvents_MarkFailureIsNotFatal(t *testing.T) {
	repo := &stubOutboxRepo{
		events:  []*domain.OutboxEvent{voucherEvent("evt-1", "V1", domain.EventTypeVoucherPosted)},
		markErr: errors.New("conn reset"),
	}
	pub := &stubPublisher{}

	require.NoError(t, newTestPublisher(repo, pub).processEvents(context.Background()))
	assert.Equal(t, []string{"evt-1"}, pub.ids())
}

func TestProcessEvents_FetchError(t *testing.T) {
	repo := &stubOutboxRepo{fetchErr: errors.New("timeout")}
	err := newTestPublisher(repo, &stubPublisher{}).processEvents(context.Background())
	assert.EqualError(t, err, "timeout")
}

func TestTick_ReportsBacklog(t *testing.T) {
	repo := &stubOutboxRepo{
		events:  []*domain.OutboxEvent{voucherEvent("evt-1", "V1", domain.EventTypeVoucherPosted)},
		pending: 42,
	}
	ep := newTestPublisher(repo, &stubPublisher{})

	ep.tick(context.Background())

	assert.Equal(t, 42.0, testutil.ToFloat64(ep.metrics.OutboxBacklog))
}

func TestPurge_UsesRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})
	now := time.Date(2025, 4, 8, 12, 0, 0, 0, time.UTC)
	ep.now = func() time.Time { return now }

	require.NoError(t, ep.purge(context.Background()))
	require.NotNil(t, repo.purgedBefore)
	assert.True(t, repo.purgedBefore.Equal(now.Add(-7*24*time.Hour)))

	ep.retention = 0
	repo.purgedBefore = nil
	require.NoError(t, ep.purge(context.Background()))
	assert.Nil(t, repo.purgedBefore, "zero retention keeps everything")
}

func TestStart_StopsOnCancel(t *testing.T) {
	ep := newTestPublisher(&stubOutboxRepo{}, &stubPublisher{})
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ep.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		require.FailNow(t, "relay did not stop after cancel")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	event := voucherEvent("evt-1", "V1", domain.EventTypeVoucherPosted)
	event.Payload = map[string]any{"doc_no": "PB-2025-03"}
	require.NoError(t, pub.Publish(context.Background(), event))

	assert.Contains(t, buf.String(), `"event_id":"evt-1"`)
	assert.Contains(t, buf.String(), `"payload":{"doc_no":"PB-2025-03"}`)
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
		Retention:  7 * 24 * time.Hour,
	})
}

type stubOutboxRepo struct {
	events       []*domain.OutboxEvent
	pending      int64
	marked       []string
	purgedBefore *time.Time
	fetchErr     error
	markErr      error
}

var _ usecase.OutboxRepository = (*stubOutboxRepo)(nil)

func (s *stubOutboxRepo) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]*domain.OutboxEvent(nil), s.events[:min(limit, len(s.events))]...), nil
}

func (s *stubOutboxRepo) CountUnpublished(context.Context) (int64, error) {
	return s.pending, nil
}

func (s *stubOutboxRepo) MarkPublished(_ context.Context, id string, _ time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) DeletePublished(_ context.Context, before time.Time) error {
	s.purgedBefore = &before
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
	attempts   map[string]int
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if s.attempts == nil {
		s.attempts = make(map[string]int)
	}
	s.attempts[event.ID]++
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubPublisher) ids() []string {
	var out []string
	for _, e := range s.published {
		out = append(out, e.ID)
	}
	return out
}
