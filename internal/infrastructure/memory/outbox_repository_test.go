package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

func TestOutboxRepository_ProcessedMessagesAreEvicted(t *testing.T) {
	repo := NewOutboxRepository()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, repo.Insert(ctx, domain.OutboxMessage{Type: "Ev", PayloadJSON: `{}`, OccurredAtUtc: i}))
	}

	pending, err := repo.GetPendingBatch(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	done := int64(100)
	first := pending[0]
	first.ProcessedAtUtc = &done
	require.NoError(t, repo.Save(ctx, first))

	failed := pending[1]
	failed.RetryCount = 1
	require.NoError(t, repo.Save(ctx, failed))

	left := repo.All()
	require.Len(t, left, 2)
	for _, msg := range left {
		assert.NotEqual(t, first.ID, msg.ID)
		assert.Nil(t, msg.ProcessedAtUtc)
	}

	pending, err = repo.GetPendingBatch(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	assert.Error(t, repo.Save(ctx, first), "an evicted message is gone")
}

func TestOutboxRepository_ExhaustedMessagesLeaveThePendingBatch(t *testing.T) {
	repo := NewOutboxRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, domain.OutboxMessage{Type: "Ev", PayloadJSON: `{}`}))

	msg := repo.All()[0]
	msg.RetryCount = 2
	require.NoError(t, repo.Save(ctx, msg))

	pending, err := repo.GetPendingBatch(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Len(t, repo.All(), 1)
}
