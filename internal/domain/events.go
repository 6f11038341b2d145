package domain

import (
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
)

// =========== Incoming event payloads ===========

// ProductCreated (from catalog.events)
type ProductCreatedPayload struct {
	ProductID     int64     `json:"productId"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAtUtc  time.Time `json:"createdAtUtc"`
}

// =========== Outgoing events ===========

type AdjustmentReason string

const (
	AdjustmentCreated     AdjustmentReason = "CREATED"
	AdjustmentUpdated     AdjustmentReason = "UPDATED"
	AdjustmentDeleted     AdjustmentReason = "DELETED"
	AdjustmentQuantitySet AdjustmentReason = "QUANTITY_SET"
	AdjustmentReserved    AdjustmentReason = "RESERVED"
)

const InventoryAdjustedRoutingKey = "InventoryAdjusted"

// InventoryAdjustedEvent is published for every successful ledger mutation
// so catalog and search can refresh their stock view.
type InventoryAdjustedEvent struct {
	primitives.BaseEvent
	InventoryID       int64            `json:"inventoryId"`
	ProductID         int64            `json:"productId"`
	Quantity          int              `json:"quantity"`
	ReservedQuantity  int              `json:"reservedQuantity"`
	AvailableQuantity int              `json:"availableQuantity"`
	Reason            AdjustmentReason `json:"reason"`
	OccurredAtUtc     time.Time        `json:"occurredAtUtc"`
}

func NewInventoryAdjustedEvent(inv Inventory, reason AdjustmentReason) *InventoryAdjustedEvent {
	ev := &InventoryAdjustedEvent{
		BaseEvent:         primitives.NewBaseEvent(),
		InventoryID:       inv.InventoryID,
		ProductID:         inv.ProductID,
		Quantity:          inv.Quantity,
		ReservedQuantity:  inv.ReservedQuantity,
		AvailableQuantity: inv.AvailableQuantity(),
		Reason:            reason,
		OccurredAtUtc:     time.Now().UTC(),
	}
	ev.SetRoutingKey(InventoryAdjustedRoutingKey)
	return ev
}
