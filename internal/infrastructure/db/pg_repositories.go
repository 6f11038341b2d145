package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

const uniqueViolation = "23505"

const schema = `
create table if not exists inventories (
    inventory_id      bigserial primary key,
    product_id        bigint not null unique,
    quantity          integer not null check (quantity >= 0),
    reserved_quantity integer not null default 0 check (reserved_quantity >= 0)
);

create table if not exists outbox_messages (
    id               uuid primary key,
    type             text not null,
    payload_json     text not null,
    occurred_at_utc  timestamptz not null,
    retry_count      integer not null default 0,
    processed_at_utc timestamptz null
);

create index if not exists ix_outbox_pending
    on outbox_messages (occurred_at_utc)
    where processed_at_utc is null;
`

// EnsureSchema creates the tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PgInventoryRepository is the durable store. The unique constraint on
// product_id gives the same one-record-per-product guarantee as the
// in-memory ledger, and the bigserial sequence never hands out an id twice.
type PgInventoryRepository struct {
	db *sql.DB
}

func NewPgInventoryRepository(db *sql.DB) *PgInventoryRepository {
	return &PgInventoryRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (*domain.Inventory, error) {
	var inv domain.Inventory
	if err := row.Scan(&inv.InventoryID, &inv.ProductID, &inv.Quantity, &inv.ReservedQuantity); err != nil {
		return nil, err
	}
	return &inv, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s: %s", domain.ErrConflict, op, pgErr.Detail)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *PgInventoryRepository) Save(ctx context.Context, inv *domain.Inventory) (*domain.Inventory, error) {
	if inv.InventoryID == 0 {
		q := `
            insert into inventories (product_id, quantity, reserved_quantity)
            values ($1, $2, $3)
            returning inventory_id, product_id, quantity, reserved_quantity
        `
		saved, err := scanInventory(r.db.QueryRowContext(ctx, q, inv.ProductID, inv.Quantity, inv.ReservedQuantity))
		if err != nil {
			return nil, mapWriteErr("insert inventory", err)
		}
		return saved, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := `
        insert into inventories (inventory_id, product_id, quantity, reserved_quantity)
        values ($1, $2, $3, $4)
        on conflict (inventory_id) do update
        set product_id = excluded.product_id,
            quantity = excluded.quantity,
            reserved_quantity = excluded.reserved_quantity
        returning inventory_id, product_id, quantity, reserved_quantity
    `
	saved, err := scanInventory(tx.QueryRowContext(ctx, q,
		inv.InventoryID, inv.ProductID, inv.Quantity, inv.ReservedQuantity))
	if err != nil {
		return nil, mapWriteErr("upsert inventory", err)
	}

	// Keep generated ids ahead of caller-supplied ones.
	advance := `
        select setval(pg_get_serial_sequence('inventories', 'inventory_id'),
                      greatest($1, (select last_value from inventories_inventory_id_seq)))
    `
	if _, err := tx.ExecContext(ctx, advance, inv.InventoryID); err != nil {
		return nil, fmt.Errorf("advance inventory sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapWriteErr("commit inventory", err)
	}
	return saved, nil
}

func (r *PgInventoryRepository) FindByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	q := `
        select inventory_id, product_id, quantity, reserved_quantity
        from inventories
        where inventory_id = $1
    `
	inv, err := scanInventory(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory %d: %w", id, err)
	}
	return inv, nil
}

func (r *PgInventoryRepository) FindByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	q := `
        select inventory_id, product_id, quantity, reserved_quantity
        from inventories
        where product_id = $1
    `
	inv, err := scanInventory(r.db.QueryRowContext(ctx, q, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory for product %d: %w", productID, err)
	}
	return inv, nil
}

func (r *PgInventoryRepository) FindAll(ctx context.Context) ([]*domain.Inventory, error) {
	q := `
        select inventory_id, product_id, quantity, reserved_quantity
        from inventories
        order by inventory_id
    `
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query inventories: %w", err)
	}
	defer rows.Close()

	result := []*domain.Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *PgInventoryRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `delete from inventories where inventory_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete inventory %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete inventory %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *PgInventoryRepository) Update(ctx context.Context, id int64, inv *domain.Inventory) (*domain.Inventory, error) {
	q := `
        update inventories
        set product_id = $2,
            quantity = $3,
            reserved_quantity = $4
        where inventory_id = $1
        returning inventory_id, product_id, quantity, reserved_quantity
    `
	updated, err := scanInventory(r.db.QueryRowContext(ctx, q, id, inv.ProductID, inv.Quantity, inv.ReservedQuantity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapWriteErr("update inventory", err)
	}
	return updated, nil
}

// UpdateByProductID locks the row for the duration of fn, so concurrent
// reservations on one product are serialized by the database.
func (r *PgInventoryRepository) UpdateByProductID(
	ctx context.Context,
	productID int64,
	fn func(inv *domain.Inventory) error,
) (*domain.Inventory, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := `
        select inventory_id, product_id, quantity, reserved_quantity
        from inventories
        where product_id = $1
        for update
    `
	current, err := scanInventory(tx.QueryRowContext(ctx, q, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock inventory for product %d: %w", productID, err)
	}

	next := *current
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.InventoryID = current.InventoryID
	next.ProductID = current.ProductID

	u := `
        update inventories
        set quantity = $2,
            reserved_quantity = $3
        where inventory_id = $1
    `
	if _, err := tx.ExecContext(ctx, u, next.InventoryID, next.Quantity, next.ReservedQuantity); err != nil {
		return nil, fmt.Errorf("update inventory %d: %w", next.InventoryID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit inventory %d: %w", next.InventoryID, err)
	}
	return &next, nil
}
