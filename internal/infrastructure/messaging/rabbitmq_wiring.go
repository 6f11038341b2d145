package messaging

import (
	"context"

	messaging "github.com/rodolfodevapp/eventshop-messaging-go/rabbitmq"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/application"
)

const (
	inventoryExchange = "inventory.events"
	catalogExchange   = "catalog.events"
)

func rabbitOptions(uri, exchange, queuePrefix string) messaging.RabbitMqOptions {
	return messaging.RabbitMqOptions{
		URI:          uri,
		ExchangeName: exchange,
		QueuePrefix:  queuePrefix,
		Prefetch:     32,
		RetryDelayMs: 30000,
	}
}

// NewInventoryProducer returns the bus the outbox dispatcher publishes
// InventoryAdjusted events on.
func NewInventoryProducer(rabbitURI string) *messaging.RabbitMqEventBus {
	return messaging.NewRabbitMqEventBus(
		rabbitOptions(rabbitURI, inventoryExchange, "inventory.dispatcher.v1"), nil, nil)
}

// NewCatalogConsumer returns the bus subscribed to catalog.events.
func NewCatalogConsumer(rabbitURI, queuePrefix string) *messaging.RabbitMqEventBus {
	return messaging.NewRabbitMqEventBus(
		rabbitOptions(rabbitURI, catalogExchange, queuePrefix), nil, nil)
}

func RegisterCatalogSubscriptions(
	ctx context.Context,
	bus *messaging.RabbitMqEventBus,
	productCreatedHandler application.EventHandler,
	logger *zap.Logger,
) error {
	bus.Subscribe("ProductCreated", productCreatedHandler)

	if err := bus.StartConsumers(ctx); err != nil {
		logger.Error("failed to start catalog consumers", zap.Error(err))
		return err
	}
	logger.Info("catalog consumers started", zap.String("exchange", catalogExchange))
	return nil
}
