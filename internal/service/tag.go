package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/util"
)

const (
	defaultSuggestLimit = 8
	maxSuggestLimit     = 25
)

// TagService serves the community tag registry. Tags are created as a side
// effect of posting questions; there is no ownership.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *store.Store, logger *slog.Logger) *TagService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TagService{store: store, logger: logger}
}

// ListTags returns all tags ordered by popularity.
func (s *TagService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// GetTag returns a tag by slug or by any spelling that normalizes to it.
func (s *TagService) GetTag(ctx context.Context, nameOrSlug string) (*domain.Tag, error) {
	slug := util.NormalizeTagSlug(nameOrSlug)
	if slug == "" {
		return nil, domainerrors.NotFound("tag not found")
	}

	t, err := s.store.GetTag(ctx, slug)
	if errors.Is(err, store.ErrTagNotFound) {
		return nil, domainerrors.NotFound("tag not found")
	}
	return t, err
}

// SuggestTags autocompletes a partially typed tag.
func (s *TagService) SuggestTags(ctx context.Context, prefix string, limit int) ([]*domain.Tag, error) {
	if limit < 1 {
		limit = defaultSuggestLimit
	}
	return s.store.SuggestTags(ctx, prefix, min(limit, maxSuggestLimit))
}

// SeedDefaults creates the starter tags that do not exist yet.
func (s *TagService) SeedDefaults(ctx context.Context) error {
	n, err := s.store.SeedTags(ctx, domain.DefaultTags)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("seeded default tags", "count", n)
	}
	return nil
}
