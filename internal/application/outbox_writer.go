package application

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

// OutboxWriter records integration events next to the state change that
// produced them; the dispatcher ships them later.
type OutboxWriter interface {
	Enqueue(ctx context.Context, ev primitives.Event) error
}

type outboxWriter struct {
	repo domain.OutboxRepository
	now  func() time.Time
}

func NewOutboxWriter(repo domain.OutboxRepository) OutboxWriter {
	return &outboxWriter{repo: repo, now: time.Now}
}

func (w *outboxWriter) Enqueue(ctx context.Context, ev primitives.Event) error {
	if isNilEvent(ev) {
		return fmt.Errorf("%w: nil event", domain.ErrInvalidArgument)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventTypeOf(ev), err)
	}

	msg := domain.OutboxMessage{
		ID:            uuid.New(),
		Type:          eventTypeOf(ev),
		PayloadJSON:   string(payload),
		OccurredAtUtc: w.now().UTC().Unix(),
	}
	if err := w.repo.Insert(ctx, msg); err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.Type, err)
	}
	return nil
}

// eventTypeOf prefers the routing key and falls back to the Go type name.
func eventTypeOf(ev primitives.Event) string {
	if key := ev.GetRoutingKey(); key != "" {
		return key
	}
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// isNilEvent also catches a typed nil pointer held in the interface.
func isNilEvent(ev primitives.Event) bool {
	if ev == nil {
		return true
	}
	v := reflect.ValueOf(ev)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
