package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
)

// InsufficientInventoryError reports a reservation larger than the
// available quantity. It matches ErrInsufficientInventory with errors.Is.
type InsufficientInventoryError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
