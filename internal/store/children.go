package store

import (
	"context"
	"fmt"

	"github.com/vbonduro/glassinv/internal/domain"
)

// childTables names the child collections of one parent table. Every child
// table has an owner_id column referencing the parent with ON DELETE CASCADE,
// plus order_index and created_at.
type childTables struct {
	tags          string
	techniques    string
	glassItems    string
	referenceURLs string
}

var (
	planChildren = childTables{
		tags:          "project_plan_tags",
		glassItems:    "project_plan_glass_items",
		referenceURLs: "project_plan_reference_urls",
	}
	logChildren = childTables{
		tags:          "project_log_tags",
		techniques:    "project_log_techniques",
		glassItems:    "project_log_glass_items",
		referenceURLs: "project_log_reference_urls",
	}
)

func clearChildren(ctx context.Context, q querier, table, ownerID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

func countChildren(ctx context.Context, q querier, table, ownerID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// replaceStrings deletes every row of a single-value child collection and
// recreates it from values, which must already be cleaned.
func replaceStrings(ctx context.Context, q querier, table, column, ownerID string, values []string) error {
	if err := clearChildren(ctx, q, table, ownerID); err != nil {
		return err
	}
	ts := now()
	for i, v := range values {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO `+table+` (owner_id, `+column+`, order_index, created_at) VALUES (?, ?, ?, ?)
		`, ownerID, v, i, ts); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func loadStrings(ctx context.Context, q querier, table, column, ownerID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+column+` FROM `+table+` WHERE owner_id = ? ORDER BY order_index ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return scanStrings(rows)
}

func replaceGlassItems(ctx context.Context, q querier, table, ownerID string, items []domain.ProjectGlassItem) error {
	if err := clearChildren(ctx, q, table, ownerID); err != nil {
		return err
	}
	ts := now()
	for i, gi := range items {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO `+table+` (owner_id, item_natural_key, freeform_description, quantity, unit, notes, order_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, ownerID, gi.ItemNaturalKey, gi.FreeformDescription, gi.Quantity, gi.Unit, gi.Notes, i, ts); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func loadGlassItems(ctx context.Context, q querier, table, ownerID string) ([]domain.ProjectGlassItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT item_natural_key, freeform_description, quantity, unit, notes
		FROM `+table+` WHERE owner_id = ? ORDER BY order_index ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer closeRows(rows)

	var items []domain.ProjectGlassItem
	for rows.Next() {
		var gi domain.ProjectGlassItem
		if err := rows.Scan(&gi.ItemNaturalKey, &gi.FreeformDescription, &gi.Quantity, &gi.Unit, &gi.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		items = append(items, gi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return items, nil
}

func replaceReferenceURLs(ctx context.Context, q querier, table, ownerID string, urls []domain.ProjectReferenceURL) error {
	if err := clearChildren(ctx, q, table, ownerID); err != nil {
		return err
	}
	ts := now()
	for i, u := range urls {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO `+table+` (owner_id, url, title, description, order_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ownerID, u.URL, u.Title, u.Description, i, ts); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func loadReferenceURLs(ctx context.Context, q querier, table, ownerID string) ([]domain.ProjectReferenceURL, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT url, title, description FROM `+table+` WHERE owner_id = ? ORDER BY order_index ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer closeRows(rows)

	var urls []domain.ProjectReferenceURL
	for rows.Next() {
		var u domain.ProjectReferenceURL
		if err := rows.Scan(&u.URL, &u.Title, &u.Description); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return urls, nil
}

// cleanGlassItems drops entries with neither a natural key nor a description.
func cleanGlassItems(items []domain.ProjectGlassItem) []domain.ProjectGlassItem {
	out := make([]domain.ProjectGlassItem, 0, len(items))
	for _, gi := range items {
		if gi.ItemNaturalKey == "" && gi.FreeformDescription == "" {
			continue
		}
		out = append(out, gi)
	}
	return out
}

func cleanReferenceURLs(urls []domain.ProjectReferenceURL) []domain.ProjectReferenceURL {
	out := make([]domain.ProjectReferenceURL, 0, len(urls))
	for _, u := range urls {
		if u.URL == "" {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ChildField names one child collection of a project plan or log.
type ChildField string

const (
	FieldTags          ChildField = "tags"
	FieldTechniques    ChildField = "techniques"
	FieldGlassItems    ChildField = "glass_items"
	FieldReferenceURLs ChildField = "reference_urls"
)

func (c childTables) table(field ChildField) (string, error) {
	var table string
	switch field {
	case FieldTags:
		table = c.tags
	case FieldTechniques:
		table = c.techniques
	case FieldGlassItems:
		table = c.glassItems
	case FieldReferenceURLs:
		table = c.referenceURLs
	}
	if table == "" {
		return "", fmt.Errorf("unsupported child field %q", field)
	}
	return table, nil
}

// LegacyRecord carries the serialized child arrays that older clients stored
// directly on a plan or log row. Nil means the column was NULL.
type LegacyRecord struct {
	ID            string
	Tags          []byte
	Techniques    []byte
	GlassItems    []byte
	ReferenceURLs []byte
}

// requireParent returns domain.ErrNotFound unless a row with id exists in
// table.
func requireParent(ctx context.Context, q querier, table, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
