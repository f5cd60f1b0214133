package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/imagestore"
)

// imageRepository is the subset of store.UserImageStore that ImageService
// requires.
type imageRepository interface {
	Create(ctx context.Context, img domain.UserImage) (*domain.UserImage, error)
	GetByID(ctx context.Context, id string) (*domain.UserImage, error)
	ListForOwner(ctx context.Context, owner domain.Owner) ([]*domain.UserImage, error)
	PrimaryForOwner(ctx context.Context, owner domain.Owner) (*domain.UserImage, error)
	PromoteToPrimary(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteForOwner(ctx context.Context, owner domain.Owner) ([]*domain.UserImage, error)
}

// ImageService pairs image metadata rows with their blobs.
type ImageService struct {
	images imageRepository
	blobs  imagestore.ImageStore
	logger *slog.Logger
}

func NewImageService(images imageRepository, blobs imagestore.ImageStore, logger *slog.Logger) *ImageService {
	return &ImageService{images: images, blobs: blobs, logger: logger}
}

// SaveImage stores data and records it for owner. If the record cannot be
// written the blob is removed again.
func (s *ImageService) SaveImage(ctx context.Context, owner domain.Owner, imageType domain.ImageType, data []byte, mimeType string) (*domain.UserImage, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}

	prefix := string(owner.Kind)
	if owner.ID != "" {
		prefix += "_" + owner.ID
	}
	key, err := s.blobs.Save(ctx, prefix, mimeType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	s.logger.Debug("image blob saved", "key", key, "bytes", len(data))

	img, err := s.images.Create(ctx, domain.UserImage{
		Owner:      owner,
		ImageType:  imageType,
		MimeType:   mimeType,
		StorageKey: key,
	})
	if err != nil {
		_ = s.blobs.Delete(ctx, key)
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	s.logger.Info("image saved", "id", img.ID, "owner", owner.String(), "type", string(img.ImageType))
	return img, nil
}

// LoadImage returns the metadata and an open reader over the image bytes.
// The caller must close the reader.
func (s *ImageService) LoadImage(ctx context.Context, id string) (*domain.UserImage, io.ReadCloser, error) {
	img, err := s.getImage(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.blobs.Get(ctx, img.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load image %s: %w", id, err)
	}
	return img, rc, nil
}

func (s *ImageService) ListImages(ctx context.Context, owner domain.Owner) ([]*domain.UserImage, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.images.ListForOwner(ctx, owner)
}

func (s *ImageService) PrimaryImage(ctx context.Context, owner domain.Owner) (*domain.UserImage, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	img, err := s.images.PrimaryForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("primary image for %s: %w", owner, domain.ErrImageNotFound)
	}
	return img, nil
}

func (s *ImageService) PromoteToPrimary(ctx context.Context, id string) error {
	if err := s.images.PromoteToPrimary(ctx, id); err != nil {
		return err
	}
	s.logger.Info("image promoted to primary", "id", id)
	return nil
}

// DeleteImage removes the record and then the blob. A blob that is already
// gone is only logged.
func (s *ImageService) DeleteImage(ctx context.Context, id string) error {
	img, err := s.getImage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}
	s.deleteBlob(ctx, img)
	s.logger.Info("image deleted", "id", id)
	return nil
}

// DeleteImagesForOwner removes every image of owner and returns how many
// records were deleted.
func (s *ImageService) DeleteImagesForOwner(ctx context.Context, owner domain.Owner) (int, error) {
	if err := owner.Validate(); err != nil {
		return 0, err
	}
	removed, err := s.images.DeleteForOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	for _, img := range removed {
		s.deleteBlob(ctx, img)
	}
	return len(removed), nil
}

func (s *ImageService) getImage(ctx context.Context, id string) (*domain.UserImage, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", id, domain.ErrImageNotFound)
	}
	return img, nil
}

func (s *ImageService) deleteBlob(ctx context.Context, img *domain.UserImage) {
	err := s.blobs.Delete(ctx, img.StorageKey)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrImageNotFound):
		s.logger.Warn("image blob already missing", "id", img.ID, "key", img.StorageKey)
	default:
		s.logger.Error("failed to delete image blob", "id", img.ID, "key", img.StorageKey, "error", err)
	}
}
