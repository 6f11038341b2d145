package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

const productCreatedEventType = "ProductCreated"

type EventHandler interface {
	Handle(ctx context.Context, ev primitives.Event) error
}

// ProductCreatedHandler opens an inventory record for every product the
// catalog announces. Redelivery is harmless: an existing record is treated
// as already applied.
type ProductCreatedHandler struct {
	service *InventoryService
	logger  *zap.Logger
}

func NewProductCreatedHandler(service *InventoryService, logger *zap.Logger) *ProductCreatedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductCreatedHandler{service: service, logger: logger}
}

func (h *ProductCreatedHandler) Handle(ctx context.Context, ev primitives.Event) error {
	env, ok := ev.(*primitives.IntegrationEventEnvelope)
	if !ok {
		h.logger.Warn("unexpected event type", zap.String("type", fmt.Sprintf("%T", ev)))
		return nil
	}
	if env.Type != productCreatedEventType {
		return nil
	}

	var payload domain.ProductCreatedPayload
	if err := json.Unmarshal([]byte(env.PayloadJSON), &payload); err != nil {
		h.logger.Warn("dropping malformed ProductCreated payload", zap.Error(err))
		return nil
	}
	if payload.ProductID <= 0 {
		h.logger.Warn("dropping ProductCreated without product id")
		return nil
	}
	quantity := payload.StockQuantity
	if quantity < 0 {
		quantity = 0
	}

	log := h.logger.With(zap.Int64("product_id", payload.ProductID))
	_, err := h.service.CreateInventory(ctx, domain.Inventory{
		ProductID: payload.ProductID,
		Quantity:  quantity,
	})
	switch {
	case err == nil:
		log.Info("inventory opened from ProductCreated", zap.Int("quantity", quantity))
		return nil
	case errors.Is(err, domain.ErrConflict):
		log.Debug("inventory already exists, skipping ProductCreated")
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidArgument):
		log.Warn("ProductCreated rejected", zap.Error(err))
		return nil
	default:
		// Upstream or storage failure: let the bus redeliver.
		return err
	}
}
