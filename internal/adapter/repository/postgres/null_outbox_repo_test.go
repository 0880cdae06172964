package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosettle/internal/domain"
)

func TestNullOutboxRepositoryDropsEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewNullOutboxRepository()

	for range 3 {
		require.NoError(t, repo.Create(ctx, nil, &domain.OutboxEvent{ID: "e"}))
	}
	assert.Equal(t, int64(3), repo.Dropped())

	events, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.NoError(t, repo.MarkPublished(ctx, "e", time.Now()))
	assert.NoError(t, repo.DeletePublished(ctx, time.Now()))
}
