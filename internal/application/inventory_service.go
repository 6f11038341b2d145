package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

const tracerName = "inventory-service"

// InventoryService enforces the business rules over the inventory store and
// mediates with the catalog. It keeps no mutable state of its own.
type InventoryService struct {
	repo           domain.InventoryRepository
	catalog        domain.CatalogClient
	outbox         OutboxWriter
	logger         *zap.Logger
	tracer         trace.Tracer
	catalogTimeout time.Duration
}

func NewInventoryService(
	repo domain.InventoryRepository,
	catalog domain.CatalogClient,
	outbox OutboxWriter,
	logger *zap.Logger,
	catalogTimeout time.Duration,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		repo:           repo,
		catalog:        catalog,
		outbox:         outbox,
		logger:         logger,
		tracer:         otel.Tracer(tracerName),
		catalogTimeout: catalogTimeout,
	}
}

func (s *InventoryService) CreateInventory(ctx context.Context, candidate domain.Inventory) (_ *domain.Inventory, err error) {
	ctx, span := s.tracer.Start(ctx, "CreateInventory")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int64("inventory.product_id", candidate.ProductID))

	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, candidate.ProductID); err != nil {
		return nil, err
	}
	if err := s.requireNoOwner(ctx, candidate.ProductID, 0); err != nil {
		return nil, err
	}
	if err := s.requireFreshID(ctx, candidate.InventoryID); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, &candidate)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("save inventory: %w", err)
	}

	s.logger.Info("inventory created",
		zap.Int64("inventory_id", saved.InventoryID),
		zap.Int64("product_id", saved.ProductID),
		zap.Int("quantity", saved.Quantity))
	s.publish(ctx, *saved, domain.AdjustmentCreated)
	return saved, nil
}

// CreateBulk validates the whole batch before writing anything. Writes are
// then applied one by one with no rollback.
func (s *InventoryService) CreateBulk(ctx context.Context, candidates []domain.Inventory) (_ []*domain.Inventory, err error) {
	ctx, span := s.tracer.Start(ctx, "CreateBulk")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("inventory.batch_size", len(candidates)))

	seen := make(map[int64]int, len(candidates))
	seenIDs := make(map[int64]int, len(candidates))
	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if prev, dup := seen[c.ProductID]; dup {
			return nil, fmt.Errorf("%w: items %d and %d both target product %d",
				domain.ErrConflict, prev, i, c.ProductID)
		}
		seen[c.ProductID] = i
		if c.InventoryID != 0 {
			if prev, dup := seenIDs[c.InventoryID]; dup {
				return nil, fmt.Errorf("%w: items %d and %d both use inventory id %d",
					domain.ErrConflict, prev, i, c.InventoryID)
			}
			seenIDs[c.InventoryID] = i
		}
		if err := s.requireFreshID(ctx, c.InventoryID); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		if err := s.requireProduct(ctx, c.ProductID); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := s.requireNoOwner(ctx, c.ProductID, 0); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	out := make([]*domain.Inventory, 0, len(candidates))
	for i := range candidates {
		saved, err := s.repo.Save(ctx, &candidates[i])
		if err != nil {
			return out, fmt.Errorf("bulk persist stopped after %d of %d items: %w",
				len(out), len(candidates), err)
		}
		out = append(out, saved)
		s.publish(ctx, *saved, domain.AdjustmentCreated)
	}

	s.logger.Info("inventory bulk created", zap.Int("count", len(out)))
	return out, nil
}

func (s *InventoryService) GetByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find inventory %d: %w", id, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: inventory %d", domain.ErrNotFound, id)
	}
	return inv, nil
}

func (s *InventoryService) GetByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	inv, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find inventory for product %d: %w", productID, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}
	return inv, nil
}

// ListPaged returns the page-th slice of size records matching filter. A page
// past the end is an empty list.
func (s *InventoryService) ListPaged(ctx context.Context, page, size int, filter domain.QuantityFilter) ([]*domain.Inventory, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidArgument)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: size must be positive", domain.ErrInvalidArgument)
	}

	matched, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}

	// compare before multiplying so a huge page cannot overflow start
	if len(matched) == 0 || page > (len(matched)-1)/size {
		return []*domain.Inventory{}, nil
	}
	start := page * size
	end := len(matched)
	if size < end-start {
		end = start + size
	}
	return matched[start:end], nil
}

func (s *InventoryService) Count(ctx context.Context, filter domain.QuantityFilter) (int, error) {
	matched, err := s.filtered(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *InventoryService) UpdateInventory(ctx context.Context, id int64, candidate domain.Inventory) (_ *domain.Inventory, err error) {
	ctx, span := s.tracer.Start(ctx, "UpdateInventory")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("inventory.id", id),
		attribute.Int64("inventory.product_id", candidate.ProductID),
	)

	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, candidate.ProductID); err != nil {
		return nil, err
	}
	if err := s.requireNoOwner(ctx, candidate.ProductID, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, &candidate)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update inventory %d: %w", id, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: inventory %d", domain.ErrNotFound, id)
	}

	s.logger.Info("inventory updated",
		zap.Int64("inventory_id", updated.InventoryID),
		zap.Int64("product_id", updated.ProductID))
	s.publish(ctx, *updated, domain.AdjustmentUpdated)
	return updated, nil
}

func (s *InventoryService) DeleteInventory(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find inventory %d: %w", id, err)
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete inventory %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("%w: inventory %d", domain.ErrNotFound, id)
	}

	s.logger.Info("inventory deleted", zap.Int64("inventory_id", id))
	if existing != nil {
		s.publish(ctx, *existing, domain.AdjustmentDeleted)
	}
	return nil
}

// SetQuantity overwrites the on-hand quantity. The reserved amount is left
// untouched, so it may end up above the new quantity.
func (s *InventoryService) SetQuantity(ctx context.Context, productID int64, quantity int) (_ *domain.Inventory, err error) {
	ctx, span := s.tracer.Start(ctx, "SetQuantity")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("inventory.product_id", productID),
		attribute.Int("inventory.quantity", quantity),
	)

	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidArgument)
	}

	updated, err := s.repo.UpdateByProductID(ctx, productID, func(inv *domain.Inventory) error {
		inv.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set quantity for product %d: %w", productID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}

	if updated.ReservedQuantity > updated.Quantity {
		s.logger.Warn("quantity set below reserved amount",
			zap.Int64("product_id", productID),
			zap.Int("quantity", updated.Quantity),
			zap.Int("reserved", updated.ReservedQuantity))
	}
	s.publish(ctx, *updated, domain.AdjustmentQuantitySet)
	return updated, nil
}

// Reserve holds amount units of the product. The availability check and the
// increment run as one atomic step in the store.
func (s *InventoryService) Reserve(ctx context.Context, productID int64, amount int) (_ *domain.Inventory, err error) {
	ctx, span := s.tracer.Start(ctx, "Reserve")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("inventory.product_id", productID),
		attribute.Int("inventory.amount", amount),
	)

	if amount <= 0 {
		return nil, fmt.Errorf("%w: reservation amount must be positive", domain.ErrInvalidArgument)
	}

	cctx, cancel := s.catalogCtx(ctx)
	available, err := s.catalog.IsAvailable(cctx, productID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: availability of product %d: %v", domain.ErrUpstreamUnavailable, productID, err)
	}
	if !available {
		return nil, fmt.Errorf("%w: product %d is not available", domain.ErrNotFound, productID)
	}

	updated, err := s.repo.UpdateByProductID(ctx, productID, func(inv *domain.Inventory) error {
		if !inv.CanReserve(amount) {
			return &domain.InsufficientInventoryError{
				ProductID: productID,
				Requested: amount,
				Available: inv.AvailableQuantity(),
			}
		}
		inv.Reserve(amount)
		return nil
	})
	if err != nil {
		var insufficient *domain.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve product %d: %w", productID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}

	span.SetAttributes(attribute.Int("inventory.available", updated.AvailableQuantity()))
	s.logger.Info("inventory reserved",
		zap.Int64("product_id", productID),
		zap.Int("amount", amount),
		zap.Int("available", updated.AvailableQuantity()))
	s.publish(ctx, *updated, domain.AdjustmentReserved)
	return updated, nil
}

// GetWithProductInfo joins the record with the catalog's product details.
func (s *InventoryService) GetWithProductInfo(ctx context.Context, id int64) (*domain.InventoryWithProduct, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product, err := s.fetchProduct(ctx, inv.ProductID)
	if err != nil {
		return nil, err
	}
	return &domain.InventoryWithProduct{Inventory: *inv, Product: *product}, nil
}

// ListByCategory returns the stock records of every product in category that
// has one. Products without a record are skipped.
func (s *InventoryService) ListByCategory(ctx context.Context, category string) ([]domain.InventoryWithProduct, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidArgument)
	}

	cctx, cancel := s.catalogCtx(ctx)
	products, err := s.catalog.GetProductsByCategory(cctx, category)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: products in category %q: %v", domain.ErrUpstreamUnavailable, category, err)
	}

	out := make([]domain.InventoryWithProduct, 0, len(products))
	for _, p := range products {
		inv, err := s.repo.FindByProductID(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("find inventory for product %d: %w", p.ID, err)
		}
		if inv == nil {
			continue
		}
		out = append(out, domain.InventoryWithProduct{Inventory: *inv, Product: p})
	}
	return out, nil
}

func (s *InventoryService) ProductInfo(ctx context.Context, productID int64) (*domain.Product, error) {
	return s.fetchProduct(ctx, productID)
}

func (s *InventoryService) filtered(ctx context.Context, filter domain.QuantityFilter) ([]*domain.Inventory, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventories: %w", err)
	}
	matched := make([]*domain.Inventory, 0, len(all))
	for _, inv := range all {
		if filter.Match(*inv) {
			matched = append(matched, inv)
		}
	}
	return matched, nil
}

func (s *InventoryService) requireProduct(ctx context.Context, productID int64) error {
	_, err := s.fetchProduct(ctx, productID)
	return err
}

// fetchProduct maps every catalog failure that is not a clean not-found to
// ErrUpstreamUnavailable.
func (s *InventoryService) fetchProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	cctx, cancel := s.catalogCtx(ctx)
	defer cancel()

	product, err := s.catalog.GetProductByID(cctx, productID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	case err != nil:
		return nil, fmt.Errorf("%w: product %d: %v", domain.ErrUpstreamUnavailable, productID, err)
	case product == nil:
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	}
	return product, nil
}

// requireNoOwner fails with ErrConflict when a record other than selfID
// already tracks productID.
func (s *InventoryService) requireNoOwner(ctx context.Context, productID, selfID int64) error {
	owner, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		return fmt.Errorf("find inventory for product %d: %w", productID, err)
	}
	if owner != nil && owner.InventoryID != selfID {
		return fmt.Errorf("%w: inventory for product %d already exists", domain.ErrConflict, productID)
	}
	return nil
}

// requireFreshID rejects a caller-supplied id that already names a record;
// Save would otherwise replace it.
func (s *InventoryService) requireFreshID(ctx context.Context, id int64) error {
	if id == 0 {
		return nil
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find inventory %d: %w", id, err)
	}
	if existing != nil {
		return fmt.Errorf("%w: inventory %d already exists", domain.ErrConflict, id)
	}
	return nil
}

func (s *InventoryService) catalogCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.catalogTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.catalogTimeout)
}

// publish enqueues an adjustment event. The mutation is already applied, so
// an enqueue failure is logged and not returned.
func (s *InventoryService) publish(ctx context.Context, inv domain.Inventory, reason domain.AdjustmentReason) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Enqueue(ctx, domain.NewInventoryAdjustedEvent(inv, reason)); err != nil {
		s.logger.Error("failed to enqueue inventory event",
			zap.Int64("inventory_id", inv.InventoryID),
			zap.String("reason", string(reason)),
			zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
