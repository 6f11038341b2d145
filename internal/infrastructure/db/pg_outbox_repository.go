package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

type PgOutboxRepository struct {
	db *sql.DB
}

func NewPgOutboxRepository(db *sql.DB) *PgOutboxRepository {
	return &PgOutboxRepository{db: db}
}

func (r *PgOutboxRepository) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().Unix()
	}

	q := `
        insert into outbox_messages
        (id, type, payload_json, occurred_at_utc, retry_count, processed_at_utc)
        values ($1, $2, $3, to_timestamp($4), $5, null)
    `
	if _, err := r.db.ExecContext(ctx, q,
		msg.ID, msg.Type, msg.PayloadJSON, msg.OccurredAtUtc, msg.RetryCount,
	); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

func (r *PgOutboxRepository) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	q := `
        select id, type, payload_json,
               extract(epoch from occurred_at_utc)::bigint,
               retry_count,
               extract(epoch from processed_at_utc)::bigint
        from outbox_messages
        where processed_at_utc is null
          and retry_count < $1
        order by occurred_at_utc asc
        limit $2
    `
	rows, err := r.db.QueryContext(ctx, q, maxRetry, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var result []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		var processedAt sql.NullInt64
		if err := rows.Scan(
			&msg.ID, &msg.Type, &msg.PayloadJSON, &msg.OccurredAtUtc, &msg.RetryCount, &processedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		if processedAt.Valid {
			t := processedAt.Int64
			msg.ProcessedAtUtc = &t
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *PgOutboxRepository) Save(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		return errors.New("outbox message id is empty")
	}

	// A typed NULL keeps the driver from guessing the parameter type.
	var processed sql.NullFloat64
	if msg.ProcessedAtUtc != nil {
		processed = sql.NullFloat64{Float64: float64(*msg.ProcessedAtUtc), Valid: true}
	}

	q := `
        update outbox_messages
        set retry_count = $2,
            processed_at_utc = coalesce(to_timestamp($3), processed_at_utc)
        where id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, msg.ID, msg.RetryCount, processed); err != nil {
		return fmt.Errorf("update outbox message %s: %w", msg.ID, err)
	}
	return nil
}
