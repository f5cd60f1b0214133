package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
)

const inventoryColumns = `id, item_stable_id, type, quantity, location, created_at, updated_at`

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(sc rowScanner) (*domain.Inventory, error) {
	inv := &domain.Inventory{}
	var location sql.NullString
	if err := sc.Scan(&inv.ID, &inv.ItemStableID, &inv.Type, &inv.Quantity, &location, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.Location = nullToStringPtr(location)
	return inv, nil
}

func scanInventories(rows *sql.Rows) ([]*domain.Inventory, error) {
	defer closeRows(rows)

	var out []*domain.Inventory
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}
	return out, nil
}

// Create inserts inv, assigning an id when inv.ID is empty.
func (s *InventoryStore) Create(ctx context.Context, inv domain.Inventory) (*domain.Inventory, error) {
	if inv.Quantity.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if inv.ID == "" {
		inv.ID = newID()
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (id, item_stable_id, type, quantity, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.ItemStableID, strings.TrimSpace(inv.Type), inv.Quantity, stringPtrToNull(inv.Location), ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}

	return s.GetByID(ctx, inv.ID)
}

func (s *InventoryStore) GetByID(ctx context.Context, id string) (*domain.Inventory, error) {
	inv, err := scanInventory(s.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return inv, nil
}

func (s *InventoryStore) List(ctx context.Context) ([]*domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory ORDER BY item_stable_id ASC, type ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return scanInventories(rows)
}

func (s *InventoryStore) ListForItem(ctx context.Context, itemStableID string) ([]*domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory WHERE item_stable_id = ? ORDER BY type ASC
	`, itemStableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory for item: %w", err)
	}
	return scanInventories(rows)
}

func (s *InventoryStore) ListByType(ctx context.Context, invType string) ([]*domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory WHERE type = ? COLLATE NOCASE ORDER BY item_stable_id ASC
	`, strings.TrimSpace(invType))
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory by type: %w", err)
	}
	return scanInventories(rows)
}

// Update overwrites every mutable field of the inventory row with inv.ID.
func (s *InventoryStore) Update(ctx context.Context, inv domain.Inventory) error {
	if inv.Quantity.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory SET item_stable_id = ?, type = ?, quantity = ?, location = ?, updated_at = ?
		WHERE id = ?
	`, inv.ItemStableID, strings.TrimSpace(inv.Type), inv.Quantity, stringPtrToNull(inv.Location), now(), inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

// SetQuantity replaces only the quantity of an inventory row.
func (s *InventoryStore) SetQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory SET quantity = ?, updated_at = ? WHERE id = ?
	`, quantity, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set inventory quantity: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

// Delete removes the inventory row; its locations cascade.
func (s *InventoryStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *InventoryStore) DeleteForItem(ctx context.Context, itemStableID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory WHERE item_stable_id = ?
	`, itemStableID)
	if err != nil {
		return fmt.Errorf("failed to delete inventory for item: %w", err)
	}
	return nil
}

// TotalQuantity sums the quantity of every holding of an item, across types.
func (s *InventoryStore) TotalQuantity(ctx context.Context, itemStableID string) (decimal.Decimal, error) {
	list, err := s.ListForItem(ctx, itemStableID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, inv := range list {
		total = total.Add(inv.Quantity)
	}
	return total, nil
}

func (s *InventoryStore) DistinctTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT type FROM inventory ORDER BY type ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory types: %w", err)
	}
	return scanStrings(rows)
}
