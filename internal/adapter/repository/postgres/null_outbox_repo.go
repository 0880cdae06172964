package postgres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// NullOutboxRepository stands in for the outbox when OUTBOX_ENABLED is
// false. Events are counted and dropped; nothing is ever unpublished.
type NullOutboxRepository struct {
	dropped atomic.Int64
}

// NewNullOutboxRepository creates a new NullOutboxRepository.
func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

// Dropped returns how many events were discarded.
func (r *NullOutboxRepository) Dropped() int64 {
	return r.dropped.Load()
}

func (r *NullOutboxRepository) Create(_ context.Context, _ usecase.Transaction, _ *domain.OutboxEvent) error {
	r.dropped.Add(1)
	return nil
}

func (r *NullOutboxRepository) GetUnpublished(context.Context, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) MarkPublished(context.Context, string, time.Time) error {
	return nil
}

func (r *NullOutboxRepository) DeletePublished(context.Context, time.Time) error {
	return nil
}
