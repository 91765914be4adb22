package postgres

import (
	"context"
	"time"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// NullOutboxRepository discards events. The server uses it when no publisher runs.
type NullOutboxRepository struct{}

func NewNullOutboxRepository() *NullOutboxRepository { return &NullOutboxRepository{} }

func (NullOutboxRepository) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (NullOutboxRepository) GetUnpublished(context.Context, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (NullOutboxRepository) CountUnpublished(context.Context) (int64, error) { return 0, nil }

func (NullOutboxRepository) MarkPublished(context.Context, string, time.Time) error { return nil }

func (NullOutboxRepository) DeletePublished(context.Context, time.Time) error { return nil }
