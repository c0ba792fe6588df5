package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/service"
)

func (s *Server) registerActivityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getActivityFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/activity",
		Summary:     "Get activity feed",
		Description: "Returns questions asked, answers posted and votes cast across the forum, newest first",
		Tags:        []string{"Activity"},
	}, s.handleGetActivityFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "getQuestionActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}/activity",
		Summary:     "Get question activity",
		Description: "Returns the activity on one question, newest first",
		Tags:        []string{"Activity"},
	}, s.handleGetQuestionActivity)
}

// ActivityInput contains cursor pagination for activity feeds.
type ActivityInput struct {
	Limit  int    `query:"limit" doc:"Maximum items (default 20, max 100)"`
	Before string `query:"before" doc:"Cursor from a previous page's next_cursor"`
}

// QuestionActivityInput selects one question's activity.
type QuestionActivityInput struct {
	ID     string `path:"id" doc:"Question ID"`
	Limit  int    `query:"limit" doc:"Maximum items (default 20, max 100)"`
	Before string `query:"before" doc:"Cursor from a previous page's next_cursor"`
}

// ActivityOutput wraps an activity page for Huma.
type ActivityOutput struct {
	Body service.ActivityPage
}

func (s *Server) handleGetActivityFeed(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
	page, err := s.services.Activity.Feed(ctx, input.Limit, input.Before)
	if err != nil {
		return nil, err
	}

	return &ActivityOutput{Body: *page}, nil
}

func (s *Server) handleGetQuestionActivity(ctx context.Context, input *QuestionActivityInput) (*ActivityOutput, error) {
	if _, err := s.services.Questions.GetQuestion(ctx, input.ID); err != nil {
		return nil, err
	}

	page, err := s.services.Activity.QuestionFeed(ctx, input.ID, input.Limit, input.Before)
	if err != nil {
		return nil, err
	}

	return &ActivityOutput{Body: *page}, nil
}
