package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestKafkaPublisher_Publish(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	w := &fakeWriter{}
	p := NewKafkaPublisher(w)

	if err := p.Publish(ctx, "InventoryAdjusted", `{"productId":1}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "InventoryAdjusted" || string(msg.Value) != `{"productId":1}` {
		t.Errorf("unexpected message %q => %q", msg.Key, msg.Value)
	}
	headers := headerMap(msg.Headers)
	if headers["event-type"] != "InventoryAdjusted" {
		t.Errorf("missing event-type header: %v", headers)
	}
	if headers["traceparent"] == "" {
		t.Errorf("expected trace context in headers: %v", headers)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Error("expected writer to be closed")
	}
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewKafkaPublisher(&fakeWriter{err: boom})

	if err := p.Publish(context.Background(), "X", `{}`); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestLogPublisher_NeverFails(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	if err := p.Publish(context.Background(), "X", `{}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter("localhost:9092", "inventory.events")
	defer w.Close()

	if w.Topic != "inventory.events" {
		t.Errorf("unexpected topic %s", w.Topic)
	}
	if w.Addr.String() != "localhost:9092" {
		t.Errorf("unexpected addr %s", w.Addr.String())
	}
}
