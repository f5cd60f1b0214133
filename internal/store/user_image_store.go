package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/glassinv/internal/domain"
)

const userImageColumns = `id, owner_kind, owner_id, image_type, mime_type, storage_key, created_at, updated_at`

// UserImageStore keeps image metadata. The bytes themselves live in an
// imagestore backend under StorageKey.
type UserImageStore struct {
	db *sql.DB
}

func NewUserImageStore(db *sql.DB) *UserImageStore {
	return &UserImageStore{db: db}
}

func scanUserImage(sc rowScanner) (*domain.UserImage, error) {
	img := &domain.UserImage{}
	var kind, ownerID string
	if err := sc.Scan(&img.ID, &kind, &ownerID, &img.ImageType, &img.MimeType, &img.StorageKey, &img.CreatedAt, &img.UpdatedAt); err != nil {
		return nil, err
	}
	owner, err := domain.ParseOwner(kind, ownerID)
	if err != nil {
		return nil, err
	}
	img.Owner = owner
	return img, nil
}

func scanUserImages(rows *sql.Rows) ([]*domain.UserImage, error) {
	defer closeRows(rows)

	var images []*domain.UserImage
	for rows.Next() {
		img, err := scanUserImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}
	return images, nil
}

func demotePrimary(ctx context.Context, q querier, owner domain.Owner) error {
	if _, err := q.ExecContext(ctx, `
		UPDATE user_images SET image_type = ?, updated_at = ?
		WHERE owner_kind = ? AND owner_id = ? AND image_type = ?
	`, domain.ImageTypeAlternate, now(), owner.Kind, owner.ID, domain.ImageTypePrimary); err != nil {
		return fmt.Errorf("failed to demote primary image: %w", err)
	}
	return nil
}

// Create stores image metadata. Saving a primary image demotes the owner's
// current primary to alternate in the same transaction.
func (s *UserImageStore) Create(ctx context.Context, img domain.UserImage) (*domain.UserImage, error) {
	if err := img.Owner.Validate(); err != nil {
		return nil, err
	}
	switch img.ImageType {
	case domain.ImageTypePrimary, domain.ImageTypeAlternate:
	case "":
		img.ImageType = domain.ImageTypeAlternate
	default:
		return nil, fmt.Errorf("unknown image type %q", img.ImageType)
	}
	if img.StorageKey == "" {
		return nil, fmt.Errorf("image requires a storage key")
	}
	if img.ID == "" {
		img.ID = newID()
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if img.ImageType == domain.ImageTypePrimary {
			if err := demotePrimary(ctx, tx, img.Owner); err != nil {
				return err
			}
		}
		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_images (`+userImageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, img.ID, img.Owner.Kind, img.Owner.ID, img.ImageType, img.MimeType, img.StorageKey, ts, ts); err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, img.ID)
}

func (s *UserImageStore) GetByID(ctx context.Context, id string) (*domain.UserImage, error) {
	img, err := scanUserImage(s.db.QueryRowContext(ctx, `
		SELECT `+userImageColumns+` FROM user_images WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// ListForOwner returns the primary image first, then alternates oldest first.
func (s *UserImageStore) ListForOwner(ctx context.Context, owner domain.Owner) ([]*domain.UserImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userImageColumns+` FROM user_images
		WHERE owner_kind = ? AND owner_id = ?
		ORDER BY CASE image_type WHEN 'primary' THEN 0 ELSE 1 END, created_at ASC, id ASC
	`, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return scanUserImages(rows)
}

func (s *UserImageStore) PrimaryForOwner(ctx context.Context, owner domain.Owner) (*domain.UserImage, error) {
	img, err := scanUserImage(s.db.QueryRowContext(ctx, `
		SELECT `+userImageColumns+` FROM user_images
		WHERE owner_kind = ? AND owner_id = ? AND image_type = ?
	`, owner.Kind, owner.ID, domain.ImageTypePrimary))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get primary image: %w", err)
	}
	return img, nil
}

// PromoteToPrimary makes the image its owner's primary, demoting the previous
// one.
func (s *UserImageStore) PromoteToPrimary(ctx context.Context, id string) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		img, err := scanUserImage(tx.QueryRowContext(ctx, `
			SELECT `+userImageColumns+` FROM user_images WHERE id = ?
		`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrImageNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get image: %w", err)
		}
		if img.ImageType == domain.ImageTypePrimary {
			return nil
		}
		if err := demotePrimary(ctx, tx, img.Owner); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE user_images SET image_type = ?, updated_at = ? WHERE id = ?
		`, domain.ImageTypePrimary, now(), id); err != nil {
			return fmt.Errorf("failed to promote image: %w", err)
		}
		return nil
	})
}

func (s *UserImageStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_images WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return requireAffected(result, domain.ErrImageNotFound)
}

// DeleteForOwner removes every image of owner and returns the removed rows so
// the caller can clean up their blobs.
func (s *UserImageStore) DeleteForOwner(ctx context.Context, owner domain.Owner) ([]*domain.UserImage, error) {
	images, err := s.ListForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM user_images WHERE owner_kind = ? AND owner_id = ?
	`, owner.Kind, owner.ID); err != nil {
		return nil, fmt.Errorf("failed to delete images for owner: %w", err)
	}
	return images, nil
}
