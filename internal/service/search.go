package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/search"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/util"
)

const maxSearchLimit = 50

// SearchService runs full-text queries over questions. It bridges the
// bleve index and the store, which keeps the index current through its
// SearchIndexer hook.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store *store.Store, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{index: index, store: store, logger: logger}
}

// Search executes a full-text query. An unknown sort is an INVALID_QUERY
// error; an empty one means relevance.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	switch params.SortBy {
	case "":
		params.SortBy = search.SortRelevance
	case search.SortRelevance, search.SortRecent, search.SortVotes:
	default:
		return nil, domainerrors.InvalidQuery(fmt.Sprintf("Unknown sort %q.", params.SortBy))
	}

	params.Query = strings.TrimSpace(params.Query)
	params.Tags = util.NormalizeTags(params.Tags)
	if params.Limit < 1 {
		params.Limit = search.DefaultSearchParams().Limit
	}
	params.Limit = min(params.Limit, maxSearchLimit)
	params.Offset = max(params.Offset, 0)

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.FetchFailed(err, "Search is unavailable.")
	}
	return result, nil
}

// EnsureIndexed fills the index from the store when it was just created or
// holds nothing, which covers first start and mapping upgrades.
func (s *SearchService) EnsureIndexed(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if !s.index.Created() && count > 0 {
		return nil
	}
	return s.Reindex(ctx)
}

// Reindex rebuilds the index from every stored question.
func (s *SearchService) Reindex(ctx context.Context) error {
	questions, err := s.store.FetchQuestions(ctx)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if err := s.index.Reindex(ctx, questions); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	s.logger.Info("search index rebuilt", "questions", len(questions))
	return nil
}

// DocumentCount reports how many questions the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
