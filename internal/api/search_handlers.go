package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search questions",
		Description: "Full-text search over question titles, tags and descriptions",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query      string   `query:"q" doc:"Search text"`
	Tags       []string `query:"tags" doc:"Only questions with any of these tags"`
	Unanswered bool     `query:"unanswered" doc:"Only questions without answers"`
	Sort       string   `query:"sort" doc:"relevance, recent or votes"`
	Limit      int      `query:"limit" doc:"Maximum hits (default 20, max 50)"`
	Offset     int      `query:"offset" doc:"Hits to skip"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, domainerrors.FetchFailed(nil, "Search is unavailable.")
	}

	res, err := s.services.Search.Search(ctx, search.SearchParams{
		Query:          input.Query,
		Tags:           input.Tags,
		UnansweredOnly: input.Unanswered,
		SortBy:         input.Sort,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeFacets:  true,
		Highlight:      true,
	})
	if err != nil {
		return nil, err
	}
	if res.Hits == nil {
		res.Hits = []search.SearchHit{}
	}

	return &SearchOutput{Body: res}, nil
}
