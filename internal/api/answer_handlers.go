package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/service"
)

func (s *Server) registerAnswerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAnswers",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}/answers",
		Summary:     "List answers",
		Description: "Returns one page of a question's answers",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAnswers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitAnswer",
		Method:        http.MethodPost,
		Path:          "/api/v1/questions/{id}/answers",
		Summary:       "Submit answer",
		Description:   "Posts an answer. Anonymous answers are accepted only when the server allows them.",
		Tags:          []string{"Answers"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleSubmitAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "voteAnswer",
		Method:      http.MethodPost,
		Path:        "/api/v1/answers/{id}/vote",
		Summary:     "Upvote answer",
		Description: "Adds the caller's vote. Without a signed-in user, or when the user already voted, nothing changes and voted is false.",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVoteAnswer)
}

// === DTOs ===

// ListAnswersInput contains answer feed parameters.
type ListAnswersInput struct {
	ID       string `path:"id" doc:"Question ID"`
	Sort     string `query:"sort" doc:"newest or most_voted"`
	Page     int    `query:"page" doc:"Page number, 1-based"`
	PageSize int    `query:"page_size" doc:"Items per page"`
}

// AnswerResponse contains answer data in API responses.
type AnswerResponse struct {
	ID         string    `json:"id" doc:"Answer ID"`
	QuestionID string    `json:"question_id" doc:"Question ID"`
	Text       string    `json:"text" doc:"Answer text"`
	AuthorID   string    `json:"author_id,omitempty" doc:"Author user ID, empty when anonymous"`
	AuthorName string    `json:"author_name" doc:"Author display name"`
	Votes      int       `json:"votes" doc:"Upvotes"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
}

// AnswerListResponse is one page of answers.
type AnswerListResponse struct {
	Answers []AnswerResponse `json:"answers" doc:"Answers on this page"`
	PageInfo
}

// ListAnswersOutput wraps the answer list for Huma.
type ListAnswersOutput struct {
	Body AnswerListResponse
}

// SubmitAnswerRequest is the request body for posting an answer.
type SubmitAnswerRequest struct {
	Text string `json:"text,omitempty" doc:"Answer text"`
}

// SubmitAnswerInput wraps the submit answer request for Huma.
type SubmitAnswerInput struct {
	ID   string `path:"id" doc:"Question ID"`
	Body SubmitAnswerRequest
}

// AnswerOutput wraps the answer response for Huma.
type AnswerOutput struct {
	Body AnswerResponse
}

// AnswerInput identifies an answer by path.
type AnswerInput struct {
	ID string `path:"id" doc:"Answer ID"`
}

// === Handlers ===

func (s *Server) handleListAnswers(ctx context.Context, input *ListAnswersInput) (*ListAnswersOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	res, err := s.services.Answers.ListAnswers(ctx, service.ListAnswersRequest{
		QuestionID: input.ID,
		Sort:       input.Sort,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	answers := make([]AnswerResponse, len(res.Items))
	for i, a := range res.Items {
		answers[i] = mapAnswer(a)
	}

	return &ListAnswersOutput{Body: AnswerListResponse{
		Answers:  answers,
		PageInfo: pageInfo(res),
	}}, nil
}

func (s *Server) handleSubmitAnswer(ctx context.Context, input *SubmitAnswerInput) (*AnswerOutput, error) {
	a, err := s.services.Answers.SubmitAnswer(ctx, input.ID, input.Body.Text)
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: mapAnswer(a)}, nil
}

// handleVoteAnswer accepts anonymous callers; the service
// turns a missing user into a no-op result.
func (s *Server) handleVoteAnswer(ctx context.Context, input *AnswerInput) (*VoteOutput, error) {
	res, err := s.services.Votes.VoteAnswer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &VoteOutput{Body: res}, nil
}

// === Helpers ===

func mapAnswer(a *domain.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Text:       a.Text,
		AuthorID:   a.AuthorID,
		AuthorName: a.Author(),
		Votes:      a.Votes,
		CreatedAt:  a.CreatedAt,
	}
}
