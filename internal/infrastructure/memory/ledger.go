package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

// Ledger is the in-memory inventory store. The primary map, the product
// index and the id allocator are only touched under mu, so no caller can
// observe a record without its index entry or vice versa.
type Ledger struct {
	mu        sync.RWMutex
	records   map[int64]domain.Inventory
	byProduct map[int64]int64

	// nextID holds the next id to hand out.
	nextID atomic.Int64
}

func NewLedger() *Ledger {
	l := &Ledger{
		records:   make(map[int64]domain.Inventory),
		byProduct: make(map[int64]int64),
	}
	l.nextID.Store(1)
	return l
}

func (l *Ledger) Save(ctx context.Context, inv *domain.Inventory) (*domain.Inventory, error) {
	rec := *inv

	l.mu.Lock()
	defer l.mu.Unlock()

	if owner, ok := l.byProduct[rec.ProductID]; ok && owner != rec.InventoryID {
		return nil, fmt.Errorf("%w: product %d already held by inventory %d",
			domain.ErrConflict, rec.ProductID, owner)
	}

	if rec.InventoryID == 0 {
		rec.InventoryID = l.nextID.Add(1) - 1
	} else {
		l.advancePast(rec.InventoryID)
	}

	l.put(rec)
	return &rec, nil
}

func (l *Ledger) FindByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *Ledger) FindByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.lookupProduct(productID)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// FindAll returns a snapshot ordered by inventory id.
func (l *Ledger) FindAll(ctx context.Context) ([]*domain.Inventory, error) {
	l.mu.RLock()
	out := make([]*domain.Inventory, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, &rec)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].InventoryID < out[j].InventoryID })
	return out, nil
}

func (l *Ledger) DeleteByID(ctx context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return false, nil
	}
	delete(l.records, id)
	if owner, ok := l.byProduct[rec.ProductID]; ok && owner == id {
		delete(l.byProduct, rec.ProductID)
	}
	return true, nil
}

// Update replaces an existing record. It never creates one: an unknown id
// yields a nil result.
func (l *Ledger) Update(ctx context.Context, id int64, inv *domain.Inventory) (*domain.Inventory, error) {
	rec := *inv
	rec.InventoryID = id

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[id]; !ok {
		return nil, nil
	}
	if owner, ok := l.byProduct[rec.ProductID]; ok && owner != id {
		return nil, fmt.Errorf("%w: product %d already held by inventory %d",
			domain.ErrConflict, rec.ProductID, owner)
	}

	l.put(rec)
	return &rec, nil
}

func (l *Ledger) UpdateByProductID(
	ctx context.Context,
	productID int64,
	fn func(inv *domain.Inventory) error,
) (*domain.Inventory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.lookupProduct(productID)
	if !ok {
		return nil, nil
	}

	next := current
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.InventoryID = current.InventoryID
	next.ProductID = current.ProductID

	l.records[next.InventoryID] = next
	return &next, nil
}

// Len reports the number of stored records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// put stores rec and moves its index entry when the product changed.
// Caller holds mu.
func (l *Ledger) put(rec domain.Inventory) {
	if prev, ok := l.records[rec.InventoryID]; ok && prev.ProductID != rec.ProductID {
		if owner, ok := l.byProduct[prev.ProductID]; ok && owner == rec.InventoryID {
			delete(l.byProduct, prev.ProductID)
		}
	}
	l.records[rec.InventoryID] = rec
	l.byProduct[rec.ProductID] = rec.InventoryID
}

// lookupProduct consults the index first and falls back to a scan when the
// index misses or points at a record that no longer matches. The fallback
// never writes. Caller holds mu.
func (l *Ledger) lookupProduct(productID int64) (domain.Inventory, bool) {
	if id, ok := l.byProduct[productID]; ok {
		if rec, ok := l.records[id]; ok && rec.ProductID == productID {
			return rec, true
		}
	}

	var (
		found domain.Inventory
		ok    bool
	)
	for _, rec := range l.records {
		if rec.ProductID != productID {
			continue
		}
		if !ok || rec.InventoryID < found.InventoryID {
			found, ok = rec, true
		}
	}
	return found, ok
}

// advancePast moves the allocator beyond a caller-supplied id so future
// generated ids never collide with it.
func (l *Ledger) advancePast(id int64) {
	next := id + 1
	for {
		current := l.nextID.Load()
		if next <= current || l.nextID.CompareAndSwap(current, next) {
			return
		}
	}
}
