package service

import (
	"context"
	"log/slog"

	"github.com/vbonduro/glassinv/internal/domain"
)

// tagRepository is the subset of store.UserTagsStore that TagService
// requires.
type tagRepository interface {
	TagsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	TagUsageCounts(ctx context.Context) ([]domain.TagCount, error)
	MostUsedTags(ctx context.Context, limit int) ([]domain.TagCount, error)
	Tags(ctx context.Context, itemID string) ([]string, error)
	SetTags(ctx context.Context, itemID string, tags []string) error
}

type TagService struct {
	tags   tagRepository
	logger *slog.Logger
}

func NewTagService(tags tagRepository, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, logger: logger}
}

// TagNames lists distinct tags starting with prefix; an empty prefix lists
// them all.
func (s *TagService) TagNames(ctx context.Context, prefix string) ([]string, error) {
	return s.tags.TagsWithPrefix(ctx, prefix)
}

// Usage returns tag counts, most used first. A limit of zero or less returns
// every tag.
func (s *TagService) Usage(ctx context.Context, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		return s.tags.TagUsageCounts(ctx)
	}
	return s.tags.MostUsedTags(ctx, limit)
}

func (s *TagService) ItemTags(ctx context.Context, itemID string) ([]string, error) {
	return s.tags.Tags(ctx, itemID)
}

// SetItemTags replaces an item's tags and returns them as stored.
func (s *TagService) SetItemTags(ctx context.Context, itemID string, tags []string) ([]string, error) {
	if err := s.tags.SetTags(ctx, itemID, tags); err != nil {
		return nil, err
	}
	s.logger.Info("item tags replaced", "item", itemID, "count", len(tags))
	return s.tags.Tags(ctx, itemID)
}
