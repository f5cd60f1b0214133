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

// LocationStore persists per-location quantities of an inventory row. A
// location is identified by (inventory_id, location name); the name is
// cleaned before every lookup so " Shelf  A" and "Shelf A" are the same key.
type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func locationKey(inventoryID, name string) (string, error) {
	name = domain.CleanLocationName(name)
	if name == "" || inventoryID == "" {
		return "", domain.ErrInvalidLocation
	}
	return name, nil
}

func getLocation(ctx context.Context, q querier, inventoryID, name string) (*domain.Location, error) {
	loc := &domain.Location{}
	err := q.QueryRowContext(ctx, `
		SELECT inventory_id, location, quantity FROM locations WHERE inventory_id = ? AND location = ?
	`, inventoryID, name).Scan(&loc.InventoryID, &loc.Location, &loc.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

func insertLocation(ctx context.Context, q querier, inventoryID, name string, quantity decimal.Decimal) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO locations (inventory_id, location, quantity) VALUES (?, ?, ?)
	`, inventoryID, name, quantity); err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

func setLocationQuantity(ctx context.Context, q querier, inventoryID, name string, quantity decimal.Decimal) error {
	if _, err := q.ExecContext(ctx, `
		UPDATE locations SET quantity = ? WHERE inventory_id = ? AND location = ?
	`, quantity, inventoryID, name); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

func deleteLocation(ctx context.Context, q querier, inventoryID, name string) error {
	if _, err := q.ExecContext(ctx, `
		DELETE FROM locations WHERE inventory_id = ? AND location = ?
	`, inventoryID, name); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

// CreateLocation inserts a new location row with a positive quantity. A row
// for the same key must not exist yet; use AddQuantity for upsert semantics.
func (s *LocationStore) CreateLocation(ctx context.Context, loc domain.Location) (*domain.Location, error) {
	name, err := locationKey(loc.InventoryID, loc.Location)
	if err != nil {
		return nil, err
	}
	if !loc.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := getLocation(ctx, tx, loc.InventoryID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("location %q for inventory %s: %w", name, loc.InventoryID, domain.ErrAlreadyExists)
		}
		return insertLocation(ctx, tx, loc.InventoryID, name, loc.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return &domain.Location{InventoryID: loc.InventoryID, Location: name, Quantity: loc.Quantity}, nil
}

// GetLocation returns nil when no row exists for the key.
func (s *LocationStore) GetLocation(ctx context.Context, inventoryID, name string) (*domain.Location, error) {
	name, err := locationKey(inventoryID, name)
	if err != nil {
		return nil, err
	}
	return getLocation(ctx, s.db, inventoryID, name)
}

func (s *LocationStore) FetchLocations(ctx context.Context, inventoryID string) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT inventory_id, location, quantity FROM locations WHERE inventory_id = ? ORDER BY location ASC
	`, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer closeRows(rows)

	var locations []*domain.Location
	for rows.Next() {
		loc := &domain.Location{}
		if err := rows.Scan(&loc.InventoryID, &loc.Location, &loc.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}
	return locations, nil
}

// UpdateLocation overwrites the quantity of an existing row. It never creates
// one. A zero quantity deletes the row, as subtraction does.
func (s *LocationStore) UpdateLocation(ctx context.Context, loc domain.Location) error {
	name, err := locationKey(loc.InventoryID, loc.Location)
	if err != nil {
		return err
	}
	if loc.Quantity.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if loc.Quantity.IsZero() {
		return s.DeleteLocation(ctx, domain.Location{InventoryID: loc.InventoryID, Location: name})
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE locations SET quantity = ? WHERE inventory_id = ? AND location = ?
	`, loc.Quantity, loc.InventoryID, name)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *LocationStore) DeleteLocation(ctx context.Context, loc domain.Location) error {
	name, err := locationKey(loc.InventoryID, loc.Location)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM locations WHERE inventory_id = ? AND location = ?
	`, loc.InventoryID, name)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *LocationStore) DeleteForInventory(ctx context.Context, inventoryID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM locations WHERE inventory_id = ?
	`, inventoryID); err != nil {
		return fmt.Errorf("failed to delete locations: %w", err)
	}
	return nil
}

func addQuantity(ctx context.Context, q querier, amount decimal.Decimal, inventoryID, name string) (*domain.Location, error) {
	existing, err := getLocation(ctx, q, inventoryID, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := insertLocation(ctx, q, inventoryID, name, amount); err != nil {
			return nil, err
		}
		return &domain.Location{InventoryID: inventoryID, Location: name, Quantity: amount}, nil
	}

	existing.Quantity = existing.Quantity.Add(amount)
	if err := setLocationQuantity(ctx, q, inventoryID, name, existing.Quantity); err != nil {
		return nil, err
	}
	return existing, nil
}

// subtractQuantity returns the updated row, or nil when the row was missing
// or has been deleted because nothing is left.
func subtractQuantity(ctx context.Context, q querier, amount decimal.Decimal, inventoryID, name string) (*domain.Location, error) {
	existing, err := getLocation(ctx, q, inventoryID, name)
	if err != nil || existing == nil {
		return nil, err
	}

	remaining := existing.Quantity.Sub(amount)
	if !remaining.IsPositive() {
		return nil, deleteLocation(ctx, q, inventoryID, name)
	}
	existing.Quantity = remaining
	if err := setLocationQuantity(ctx, q, inventoryID, name, remaining); err != nil {
		return nil, err
	}
	return existing, nil
}

// AddQuantity increments the row for the key, creating it with amount when it
// does not exist yet.
func (s *LocationStore) AddQuantity(ctx context.Context, amount decimal.Decimal, location, inventoryID string) (*domain.Location, error) {
	name, err := locationKey(inventoryID, location)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	var loc *domain.Location
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		loc, err = addQuantity(ctx, tx, amount, inventoryID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// SubtractQuantity decrements the row for the key. When nothing is left the
// row is deleted and nil is returned. A missing row is not an error: the call
// is a no-op that also returns nil.
func (s *LocationStore) SubtractQuantity(ctx context.Context, amount decimal.Decimal, location, inventoryID string) (*domain.Location, error) {
	name, err := locationKey(inventoryID, location)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	var loc *domain.Location
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		loc, err = subtractQuantity(ctx, tx, amount, inventoryID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// MoveQuantity subtracts amount from one location and adds it to another in a
// single transaction.
func (s *LocationStore) MoveQuantity(ctx context.Context, amount decimal.Decimal, from, to, inventoryID string) error {
	fromName, err := locationKey(inventoryID, from)
	if err != nil {
		return err
	}
	toName, err := locationKey(inventoryID, to)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	if fromName == toName {
		return nil
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		source, err := getLocation(ctx, tx, inventoryID, fromName)
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("location %q for inventory %s: %w", fromName, inventoryID, domain.ErrNotFound)
		}
		if source.Quantity.LessThan(amount) {
			return fmt.Errorf("move %s from %q holding %s: %w", amount, fromName, source.Quantity, domain.ErrInsufficientQuantity)
		}
		if _, err := subtractQuantity(ctx, tx, amount, inventoryID, fromName); err != nil {
			return err
		}
		_, err = addQuantity(ctx, tx, amount, inventoryID, toName)
		return err
	})
}

// SetLocations replaces every location of an inventory row with locations.
// Entries that clean to the same name are summed; zero quantities are
// skipped.
func (s *LocationStore) SetLocations(ctx context.Context, locations []domain.Location, inventoryID string) error {
	if inventoryID == "" {
		return domain.ErrInvalidLocation
	}

	merged := make(map[string]decimal.Decimal, len(locations))
	var order []string
	for _, loc := range locations {
		name, err := locationKey(inventoryID, loc.Location)
		if err != nil {
			return err
		}
		if loc.Quantity.IsNegative() {
			return domain.ErrInvalidQuantity
		}
		if _, seen := merged[name]; !seen {
			order = append(order, name)
		}
		merged[name] = merged[name].Add(loc.Quantity)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM locations WHERE inventory_id = ?
		`, inventoryID); err != nil {
			return fmt.Errorf("failed to clear locations: %w", err)
		}
		for _, name := range order {
			if merged[name].IsZero() {
				continue
			}
			if err := insertLocation(ctx, tx, inventoryID, name, merged[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DistinctLocationNames lists every location name in use, once each.
func (s *LocationStore) DistinctLocationNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT location FROM locations ORDER BY location ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list location names: %w", err)
	}
	return scanStrings(rows)
}

// LocationNames lists distinct names starting with prefix, ignoring case.
// Matching runs in Go because SQLite only folds ASCII letters.
func (s *LocationStore) LocationNames(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.DistinctLocationNames(ctx)
	if err != nil {
		return nil, err
	}
	prefix = domain.FoldName(domain.CleanLocationName(prefix))
	if prefix == "" {
		return names, nil
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(domain.FoldName(name), prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

// InventoriesInLocation returns the inventory rows holding any quantity at
// the named location.
func (s *LocationStore) InventoriesInLocation(ctx context.Context, name string) ([]*domain.Inventory, error) {
	name = domain.CleanLocationName(name)
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.item_stable_id, i.type, i.quantity, i.location, i.created_at, i.updated_at
		FROM inventory i
		JOIN locations l ON l.inventory_id = i.id
		WHERE l.location = ?
		ORDER BY i.item_stable_id ASC, i.type ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory in location: %w", err)
	}
	return scanInventories(rows)
}

// TotalQuantity sums an inventory row's quantity across all its locations.
func (s *LocationStore) TotalQuantity(ctx context.Context, inventoryID string) (decimal.Decimal, error) {
	locations, err := s.FetchLocations(ctx, inventoryID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, loc := range locations {
		total = total.Add(loc.Quantity)
	}
	return total, nil
}
