package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags, most used first",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/suggest",
		Summary:     "Suggest tags",
		Description: "Autocompletes a partially typed tag",
		Tags:        []string{"Tags"},
	}, s.handleSuggestTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{slug}",
		Summary:     "Get tag",
		Description: "Returns a tag by slug or any spelling that normalizes to it",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)
}

// === DTOs ===

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []*domain.Tag `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// SuggestTagsInput contains autocomplete parameters.
type SuggestTagsInput struct {
	Query string `query:"q" doc:"Typed prefix"`
	Limit int    `query:"limit" doc:"Maximum suggestions (default 8, max 25)"`
}

// GetTagInput identifies a tag.
type GetTagInput struct {
	Slug string `path:"slug" doc:"Tag slug or name"`
}

// TagOutput wraps a tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tags.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: nonNil(tags)}}, nil
}

func (s *Server) handleSuggestTags(ctx context.Context, input *SuggestTagsInput) (*ListTagsOutput, error) {
	tags, err := s.services.Tags.SuggestTags(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: nonNil(tags)}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	t, err := s.services.Tags.GetTag(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: t}, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
