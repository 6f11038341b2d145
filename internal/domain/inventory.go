package domain

import "fmt"

// Inventory is the stock-tracking record for one catalog product.
type Inventory struct {
	InventoryID      int64
	ProductID        int64
	Quantity         int
	ReservedQuantity int
}

func (i Inventory) AvailableQuantity() int {
	return i.Quantity - i.ReservedQuantity
}

func (i Inventory) CanReserve(qty int) bool {
	return qty > 0 && i.AvailableQuantity() >= qty
}

func (i *Inventory) Reserve(qty int) {
	i.ReservedQuantity += qty
}

// Validate checks the field rules a candidate must satisfy before it is
// written. It does not consult the catalog or the ledger.
func (i Inventory) Validate() error {
	if i.ProductID <= 0 {
		return fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
	}
	if i.ReservedQuantity < 0 {
		return fmt.Errorf("%w: reserved quantity cannot be negative", ErrInvalidArgument)
	}
	if i.ReservedQuantity > i.Quantity {
		return fmt.Errorf("%w: reserved quantity %d exceeds quantity %d",
			ErrInvalidArgument, i.ReservedQuantity, i.Quantity)
	}
	return nil
}

// QuantityFilter holds inclusive bounds on Quantity. A nil bound is open.
type QuantityFilter struct {
	Min *int
	Max *int
}

func (f QuantityFilter) Match(inv Inventory) bool {
	if f.Min != nil && inv.Quantity < *f.Min {
		return false
	}
	if f.Max != nil && inv.Quantity > *f.Max {
		return false
	}
	return true
}

// Product is the catalog's view of a product, as returned by the catalog API.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// InventoryWithProduct joins an inventory record with its catalog product.
type InventoryWithProduct struct {
	Inventory Inventory
	Product   Product
}
