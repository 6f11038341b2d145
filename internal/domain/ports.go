package domain

import (
	"context"

	"github.com/google/uuid"
)

// InventoryRepository is the ledger contract. Absent records are reported as
// nil results, never as errors. Implementations return copies.
type InventoryRepository interface {
	Save(ctx context.Context, inv *Inventory) (*Inventory, error)
	FindByID(ctx context.Context, id int64) (*Inventory, error)
	FindByProductID(ctx context.Context, productID int64) (*Inventory, error)
	FindAll(ctx context.Context) ([]*Inventory, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, id int64, inv *Inventory) (*Inventory, error)

	// UpdateByProductID applies fn to the record owning productID and stores
	// the result atomically. An error from fn aborts the write and is returned
	// unchanged. fn cannot change InventoryID or ProductID.
	UpdateByProductID(ctx context.Context, productID int64, fn func(inv *Inventory) error) (*Inventory, error)
}

// CatalogClient is the capability the service needs from the catalog.
// GetProductByID returns an error matching ErrNotFound for a clean miss and
// ErrUpstreamUnavailable for everything else.
type CatalogClient interface {
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]Product, error)
	IsAvailable(ctx context.Context, id int64) (bool, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, msg OutboxMessage) error
	GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]OutboxMessage, error)
	Save(ctx context.Context, msg OutboxMessage) error
}

type OutboxMessage struct {
	ID             uuid.UUID
	Type           string
	PayloadJSON    string
	OccurredAtUtc  int64 // unix seconds
	RetryCount     int
	ProcessedAtUtc *int64
}
