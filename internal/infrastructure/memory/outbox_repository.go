package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

// OutboxRepository keeps outbox messages in process memory. It pairs with
// the in-memory ledger so the dispatcher works the same on both backends.
// Only unprocessed messages are retained.
type OutboxRepository struct {
	mu       sync.Mutex
	messages map[uuid.UUID]domain.OutboxMessage
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{messages: make(map[uuid.UUID]domain.OutboxMessage)}
}

func (r *OutboxRepository) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().Unix()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ID] = msg
	return nil
}

func (r *OutboxRepository) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	pending := make([]domain.OutboxMessage, 0)
	for _, msg := range r.messages {
		if msg.ProcessedAtUtc == nil && msg.RetryCount < maxRetry {
			pending = append(pending, msg)
		}
	}
	r.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].OccurredAtUtc < pending[j].OccurredAtUtc
	})
	if batchSize > 0 && len(pending) > batchSize {
		pending = pending[:batchSize]
	}
	return pending, nil
}

func (r *OutboxRepository) Save(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		return errors.New("outbox message id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.messages[msg.ID]
	if !ok {
		return errors.New("outbox message not found")
	}
	if msg.ProcessedAtUtc != nil {
		// processed messages are never read again
		delete(r.messages, msg.ID)
		return nil
	}
	existing.RetryCount = msg.RetryCount
	r.messages[msg.ID] = existing
	return nil
}

// All returns the retained messages: pending ones and those that exhausted
// their retries. Processed messages are evicted on Save.
func (r *OutboxRepository) All() []domain.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.OutboxMessage, 0, len(r.messages))
	for _, msg := range r.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAtUtc < out[j].OccurredAtUtc })
	return out
}
