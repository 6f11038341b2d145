package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/abstractions"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// BusPublisher wraps outbox payloads in the shared integration envelope and
// publishes them on an event bus, routed by event type.
type BusPublisher struct {
	bus abstractions.EventBus
}

func NewBusPublisher(bus abstractions.EventBus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

func (p *BusPublisher) Publish(ctx context.Context, eventType, payloadJSON string) error {
	envelope := primitives.NewIntegrationEventEnvelope(eventType, payloadJSON)
	envelope.SetRoutingKey(eventType)
	if err := p.bus.Publish(ctx, &envelope); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outbox payloads to a Kafka topic, keyed by event type,
// with the trace context carried in the record headers.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, payloadJSON string) error {
	headers := []kafka.Header{{Key: "event-type", Value: []byte(eventType)}}
	headers = injectKafkaHeaders(ctx, headers)

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(eventType),
		Value:   []byte(payloadJSON),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("write %s to kafka: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func injectKafkaHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// LogPublisher only logs. It backs EVENT_BROKER=none so the outbox still
// drains in local runs.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, eventType, payloadJSON string) error {
	p.logger.Info("event published", zap.String("type", eventType), zap.String("payload", payloadJSON))
	return nil
}
