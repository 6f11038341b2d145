package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

// Publisher ships one serialized event to the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, payloadJSON string) error
}

type Dispatcher struct {
	repo      domain.OutboxRepository
	publisher Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	maxRetry  int
	batchSize int
}

func NewDispatcher(
	repo domain.OutboxRepository,
	publisher Publisher,
	logger *zap.Logger,
	maxRetry, batchSize int,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("inventory-outbox"),
		maxRetry:  maxRetry,
		batchSize: batchSize,
	}
}

// DispatchOnce publishes one batch of pending messages and returns how many
// were marked processed. A failed publish bumps the retry counter; once it
// reaches maxRetry the message is no longer picked up.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	msgs, err := d.repo.GetPendingBatch(ctx, d.maxRetry, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	ctx, span := d.tracer.Start(ctx, "outbox.dispatch")
	defer span.End()
	span.SetAttributes(attribute.Int("outbox.batch_size", len(msgs)))

	processed := 0
	for i := range msgs {
		msg := &msgs[i]
		log := d.logger.With(zap.String("message_id", msg.ID.String()), zap.String("type", msg.Type))

		if !json.Valid([]byte(msg.PayloadJSON)) {
			log.Error("outbox payload is not valid json")
			msg.RetryCount++
			d.save(ctx, log, *msg)
			continue
		}

		if err := d.publisher.Publish(ctx, msg.Type, msg.PayloadJSON); err != nil {
			msg.RetryCount++
			log.Warn("outbox publish failed", zap.Int("retry_count", msg.RetryCount), zap.Error(err))
			if msg.RetryCount >= d.maxRetry {
				log.Error("outbox message exhausted retries")
			}
		} else {
			now := time.Now().UTC().Unix()
			msg.ProcessedAtUtc = &now
			processed++
		}

		d.save(ctx, log, *msg)
	}

	span.SetAttributes(attribute.Int("outbox.processed", processed))
	return processed, nil
}

func (d *Dispatcher) save(ctx context.Context, log *zap.Logger, msg domain.OutboxMessage) {
	if err := d.repo.Save(ctx, msg); err != nil {
		log.Error("outbox save failed", zap.Error(err))
	}
}
