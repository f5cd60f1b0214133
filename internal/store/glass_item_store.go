package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vbonduro/glassinv/internal/catalog"
	"github.com/vbonduro/glassinv/internal/domain"
)

const glassItemColumns = `stable_id, natural_key, name, manufacturer, sku, coe, mfr_notes, url, mfr_status, image_url, created_at, updated_at`

type GlassItemStore struct {
	db *sql.DB
}

func NewGlassItemStore(db *sql.DB) *GlassItemStore {
	return &GlassItemStore{db: db}
}

func scanGlassItem(sc rowScanner) (*domain.GlassItem, error) {
	item := &domain.GlassItem{}
	err := sc.Scan(&item.StableID, &item.NaturalKey, &item.Name, &item.Manufacturer, &item.SKU, &item.COE,
		&item.MfrNotes, &item.URL, &item.MfrStatus, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanGlassItems(rows *sql.Rows) ([]*domain.GlassItem, error) {
	defer closeRows(rows)

	var items []*domain.GlassItem
	for rows.Next() {
		item, err := scanGlassItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan glass item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating glass items: %w", err)
	}
	return items, nil
}

// Create inserts a catalog item. Missing natural keys are derived from the
// manufacturer and SKU, and missing stable ids are generated so they do not
// collide with any existing item.
func (s *GlassItemStore) Create(ctx context.Context, item domain.GlassItem) (*domain.GlassItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Manufacturer = strings.TrimSpace(item.Manufacturer)
	item.SKU = strings.TrimSpace(item.SKU)
	if item.Manufacturer == "" || item.SKU == "" {
		return nil, fmt.Errorf("glass item requires manufacturer and sku")
	}
	if item.NaturalKey == "" {
		item.NaturalKey = catalog.NaturalKey(item.Manufacturer, item.SKU, 0)
	}
	if item.MfrStatus == "" {
		item.MfrStatus = domain.MfrStatusAvailable
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM glass_items WHERE natural_key = ? OR stable_id = ?
		`, item.NaturalKey, item.StableID).Scan(&n); err != nil {
			return fmt.Errorf("failed to check glass item: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("glass item %s: %w", item.NaturalKey, domain.ErrAlreadyExists)
		}

		if item.StableID == "" {
			existing, err := stableIDs(ctx, tx)
			if err != nil {
				return err
			}
			item.StableID, err = catalog.StableID(item.Manufacturer, item.SKU, existing)
			if err != nil {
				return err
			}
		}

		ts := now()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO glass_items (`+glassItemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, item.StableID, item.NaturalKey, item.Name, item.Manufacturer, item.SKU, item.COE,
			item.MfrNotes, item.URL, item.MfrStatus, item.ImageURL, ts, ts)
		if err != nil {
			return fmt.Errorf("failed to create glass item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, item.StableID)
}

func stableIDs(ctx context.Context, q querier) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, `SELECT stable_id FROM glass_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stable ids: %w", err)
	}
	ids, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *GlassItemStore) GetByID(ctx context.Context, stableID string) (*domain.GlassItem, error) {
	return s.getOne(ctx, `stable_id = ?`, stableID)
}

func (s *GlassItemStore) GetByNaturalKey(ctx context.Context, naturalKey string) (*domain.GlassItem, error) {
	return s.getOne(ctx, `natural_key = ?`, strings.ToLower(strings.TrimSpace(naturalKey)))
}

func (s *GlassItemStore) getOne(ctx context.Context, where string, arg any) (*domain.GlassItem, error) {
	item, err := scanGlassItem(s.db.QueryRowContext(ctx, `
		SELECT `+glassItemColumns+` FROM glass_items WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get glass item: %w", err)
	}
	return item, nil
}

func (s *GlassItemStore) List(ctx context.Context) ([]*domain.GlassItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+glassItemColumns+` FROM glass_items ORDER BY manufacturer ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list glass items: %w", err)
	}
	return scanGlassItems(rows)
}

func (s *GlassItemStore) ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.GlassItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+glassItemColumns+` FROM glass_items WHERE manufacturer = ? COLLATE NOCASE ORDER BY name ASC
	`, strings.TrimSpace(manufacturer))
	if err != nil {
		return nil, fmt.Errorf("failed to list glass items by manufacturer: %w", err)
	}
	return scanGlassItems(rows)
}

func (s *GlassItemStore) ListByCOE(ctx context.Context, coe int) ([]*domain.GlassItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+glassItemColumns+` FROM glass_items WHERE coe = ? ORDER BY manufacturer ASC, name ASC
	`, coe)
	if err != nil {
		return nil, fmt.Errorf("failed to list glass items by coe: %w", err)
	}
	return scanGlassItems(rows)
}

// Search matches text against name, SKU and natural key, ignoring case.
func (s *GlassItemStore) Search(ctx context.Context, text string) ([]*domain.GlassItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.List(ctx)
	}
	pattern := likeContains(strings.ToLower(text))
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+glassItemColumns+` FROM glass_items
		WHERE LOWER(name) LIKE ? ESCAPE '\'
		   OR LOWER(sku) LIKE ? ESCAPE '\'
		   OR natural_key LIKE ? ESCAPE '\'
		ORDER BY manufacturer ASC, name ASC
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search glass items: %w", err)
	}
	return scanGlassItems(rows)
}

// Update overwrites the descriptive fields of an item. Identifiers are never
// changed.
func (s *GlassItemStore) Update(ctx context.Context, item domain.GlassItem) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE glass_items
		SET name = ?, manufacturer = ?, sku = ?, coe = ?, mfr_notes = ?, url = ?, mfr_status = ?, image_url = ?, updated_at = ?
		WHERE stable_id = ?
	`, strings.TrimSpace(item.Name), strings.TrimSpace(item.Manufacturer), strings.TrimSpace(item.SKU), item.COE,
		item.MfrNotes, item.URL, item.MfrStatus, item.ImageURL, now(), item.StableID)
	if err != nil {
		return fmt.Errorf("failed to update glass item: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *GlassItemStore) Delete(ctx context.Context, stableID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM glass_items WHERE stable_id = ?
	`, stableID)
	if err != nil {
		return fmt.Errorf("failed to delete glass item: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *GlassItemStore) DistinctManufacturers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT manufacturer FROM glass_items ORDER BY manufacturer ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list manufacturers: %w", err)
	}
	return scanStrings(rows)
}

func (s *GlassItemStore) DistinctCOEs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT coe FROM glass_items ORDER BY coe ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coes: %w", err)
	}
	defer closeRows(rows)

	var coes []int
	for rows.Next() {
		var coe int
		if err := rows.Scan(&coe); err != nil {
			return nil, fmt.Errorf("failed to scan coe: %w", err)
		}
		coes = append(coes, coe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coes: %w", err)
	}
	return coes, nil
}
