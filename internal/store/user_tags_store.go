package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/glassinv/internal/domain"
)

// UserTagsStore attaches free-form tags to catalog items. Tags are
// normalized on every write and read path, so callers may pass raw user
// input.
type UserTagsStore struct {
	db *sql.DB
}

func NewUserTagsStore(db *sql.DB) *UserTagsStore {
	return &UserTagsStore{db: db}
}

func insertTag(ctx context.Context, q querier, itemID, tag string) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO item_tags (item_id, tag, created_at) VALUES (?, ?, ?)
		ON CONFLICT (item_id, tag) DO NOTHING
	`, itemID, tag, now()); err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

// AddTag is idempotent: adding a tag twice leaves one row.
func (s *UserTagsStore) AddTag(ctx context.Context, itemID, tag string) error {
	tag = domain.NormalizeTag(tag)
	if tag == "" || itemID == "" {
		return domain.ErrInvalidTag
	}
	return insertTag(ctx, s.db, itemID, tag)
}

func (s *UserTagsStore) AddTags(ctx context.Context, itemID string, tags []string) error {
	if itemID == "" {
		return domain.ErrInvalidTag
	}
	normalized := domain.NormalizeTags(tags)
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, tag := range normalized {
			if err := insertTag(ctx, tx, itemID, tag); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveTag deletes one tag from an item. Removing a tag the item does not
// carry is not an error.
func (s *UserTagsStore) RemoveTag(ctx context.Context, itemID, tag string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM item_tags WHERE item_id = ? AND tag = ?
	`, itemID, domain.NormalizeTag(tag)); err != nil {
		return fmt.Errorf("failed to remove tag: %w", err)
	}
	return nil
}

func (s *UserTagsStore) RemoveAllTags(ctx context.Context, itemID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM item_tags WHERE item_id = ?
	`, itemID); err != nil {
		return fmt.Errorf("failed to remove tags: %w", err)
	}
	return nil
}

// SetTags replaces the item's tags with tags.
func (s *UserTagsStore) SetTags(ctx context.Context, itemID string, tags []string) error {
	if itemID == "" {
		return domain.ErrInvalidTag
	}
	normalized := domain.NormalizeTags(tags)
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		for _, tag := range normalized {
			if err := insertTag(ctx, tx, itemID, tag); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *UserTagsStore) Tags(ctx context.Context, itemID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag FROM item_tags WHERE item_id = ? ORDER BY tag ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return scanStrings(rows)
}

func (s *UserTagsStore) ItemsWithTag(ctx context.Context, tag string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM item_tags WHERE tag = ? ORDER BY item_id ASC
	`, domain.NormalizeTag(tag))
	if err != nil {
		return nil, fmt.Errorf("failed to list items with tag: %w", err)
	}
	return scanStrings(rows)
}

// ItemsWithAllTags returns items carrying every one of tags. An empty tag
// list matches nothing.
func (s *UserTagsStore) ItemsWithAllTags(ctx context.Context, tags []string) ([]string, error) {
	normalized := domain.NormalizeTags(tags)
	if len(normalized) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(normalized)+1)
	for _, tag := range normalized {
		args = append(args, tag)
	}
	args = append(args, len(normalized))
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM item_tags WHERE tag IN (`+placeholders(len(normalized))+`)
		GROUP BY item_id HAVING COUNT(*) = ?
		ORDER BY item_id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items with all tags: %w", err)
	}
	return scanStrings(rows)
}

func (s *UserTagsStore) ItemsWithAnyTag(ctx context.Context, tags []string) ([]string, error) {
	normalized := domain.NormalizeTags(tags)
	if len(normalized) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(normalized))
	for _, tag := range normalized {
		args = append(args, tag)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT item_id FROM item_tags WHERE tag IN (`+placeholders(len(normalized))+`)
		ORDER BY item_id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items with any tag: %w", err)
	}
	return scanStrings(rows)
}

func (s *UserTagsStore) AllTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tag FROM item_tags ORDER BY tag ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tags: %w", err)
	}
	return scanStrings(rows)
}

func (s *UserTagsStore) TagsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	prefix = domain.NormalizeTag(prefix)
	if prefix == "" {
		return s.AllTags(ctx)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tag FROM item_tags WHERE tag LIKE ? ESCAPE '\' ORDER BY tag ASC
	`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}
	return scanStrings(rows)
}

// TagUsageCounts lists every tag with the number of items carrying it, most
// used first.
func (s *UserTagsStore) TagUsageCounts(ctx context.Context) ([]domain.TagCount, error) {
	return s.usage(ctx, -1)
}

func (s *UserTagsStore) MostUsedTags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.usage(ctx, limit)
}

func (s *UserTagsStore) usage(ctx context.Context, limit int) ([]domain.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS n FROM item_tags GROUP BY tag ORDER BY n DESC, tag ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	defer closeRows(rows)

	var counts []domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag counts: %w", err)
	}
	return counts, nil
}
