package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/content"
	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/service"
)

func (s *Server) registerQuestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions",
		Summary:     "List questions",
		Description: "Returns one page of the question feed after search, filter and sort",
		Tags:        []string{"Questions"},
	}, s.handleListQuestions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createQuestion",
		Method:        http.MethodPost,
		Path:          "/api/v1/questions",
		Summary:       "Ask a question",
		Description:   "Posts a question as the signed-in user",
		Tags:          []string{"Questions"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "getQuestion",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Get question",
		Description: "Returns a question with its full description",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "voteQuestion",
		Method:      http.MethodPost,
		Path:        "/api/v1/questions/{id}/vote",
		Summary:     "Upvote question",
		Description: "Adds the signed-in user's vote. Voting again changes nothing.",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVoteQuestion)
}

// === DTOs ===

// PageInfo describes the page served out of a feed.
type PageInfo struct {
	Total      int `json:"total" doc:"Items left after search and filter"`
	Page       int `json:"page" doc:"Page served, 1-based"`
	PageSize   int `json:"page_size" doc:"Items per page"`
	TotalPages int `json:"total_pages" doc:"Number of pages"`
}

func pageInfo[T any](r feed.Result[T]) PageInfo {
	return PageInfo{
		Total:      r.Total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: r.TotalPages,
	}
}

// ListQuestionsInput contains feed parameters.
type ListQuestionsInput struct {
	Search   string `query:"search" doc:"Case-insensitive title substring"`
	Filter   string `query:"filter" doc:"all or unanswered"`
	Sort     string `query:"sort" doc:"newest or most_voted"`
	Page     int    `query:"page" doc:"Page number, 1-based"`
	PageSize int    `query:"page_size" doc:"Items per page"`
}

// QuestionResponse contains question data in API responses.
type QuestionResponse struct {
	ID          string    `json:"id" doc:"Question ID"`
	Title       string    `json:"title" doc:"Title"`
	Description string    `json:"description,omitempty" doc:"Markdown description (detail only)"`
	Excerpt     string    `json:"excerpt" doc:"Plain-text preview of the description"`
	Tags        []string  `json:"tags" doc:"Tag slugs"`
	AuthorID    string    `json:"author_id" doc:"Author user ID"`
	AuthorName  string    `json:"author_name" doc:"Author display name"`
	Votes       int       `json:"votes" doc:"Upvotes"`
	AnswerCount int       `json:"answer_count" doc:"Number of answers"`
	Voted       bool      `json:"voted" doc:"Whether the caller has voted (detail only)"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// QuestionListResponse is one page of the question feed.
type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions" doc:"Questions on this page"`
	PageInfo
}

// ListQuestionsOutput wraps the question feed for Huma.
type ListQuestionsOutput struct {
	Body QuestionListResponse
}

// CreateQuestionRequest is the request body for asking a question.
type CreateQuestionRequest struct {
	Title             string   `json:"title,omitempty" doc:"Title"`
	Description       string   `json:"description,omitempty" doc:"Description in Markdown or HTML"`
	DescriptionFormat string   `json:"description_format,omitempty" enum:"markdown,html" doc:"Format of description; detected when omitted"`
	Tags              []string `json:"tags,omitempty" doc:"Between 1 and 5 tags"`
}

// CreateQuestionInput wraps the create question request for Huma.
type CreateQuestionInput struct {
	Body CreateQuestionRequest
}

// QuestionInput identifies a question by path.
type QuestionInput struct {
	ID string `path:"id" doc:"Question ID"`
}

// QuestionOutput wraps the question response for Huma.
type QuestionOutput struct {
	Body QuestionResponse
}

// VoteOutput wraps a vote result for Huma.
type VoteOutput struct {
	Body domain.VoteResult
}

// === Handlers ===

func (s *Server) handleListQuestions(ctx context.Context, input *ListQuestionsInput) (*ListQuestionsOutput, error) {
	res, err := s.services.Questions.ListQuestions(ctx, service.ListQuestionsRequest{
		Search:   input.Search,
		Filter:   input.Filter,
		Sort:     input.Sort,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	questions := make([]QuestionResponse, len(res.Items))
	for i, q := range res.Items {
		questions[i] = mapQuestion(q, false)
	}

	return &ListQuestionsOutput{Body: QuestionListResponse{
		Questions: questions,
		PageInfo:  pageInfo(res),
	}}, nil
}

func (s *Server) handleCreateQuestion(ctx context.Context, input *CreateQuestionInput) (*QuestionOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	q, err := s.services.Questions.CreateQuestion(ctx, service.CreateQuestionRequest{
		Title:             input.Body.Title,
		Description:       input.Body.Description,
		DescriptionFormat: content.Format(input.Body.DescriptionFormat),
		Tags:              input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &QuestionOutput{Body: mapQuestion(q, true)}, nil
}

func (s *Server) handleGetQuestion(ctx context.Context, input *QuestionInput) (*QuestionOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	q, err := s.services.Questions.GetQuestion(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := mapQuestion(q, true)
	voted, err := s.services.Votes.HasVoted(ctx, domain.TargetQuestion, q.ID)
	if err != nil {
		s.logger.Warn("failed to check vote", "question_id", q.ID, "error", err)
	}
	resp.Voted = voted

	return &QuestionOutput{Body: resp}, nil
}

func (s *Server) handleVoteQuestion(ctx context.Context, input *QuestionInput) (*VoteOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	res, err := s.services.Votes.VoteQuestion(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &VoteOutput{Body: res}, nil
}

// === Helpers ===

func mapQuestion(q *domain.Question, detail bool) QuestionResponse {
	resp := QuestionResponse{
		ID:          q.ID,
		Title:       q.Title,
		Excerpt:     content.Excerpt(q.Description),
		Tags:        q.Tags,
		AuthorID:    q.AuthorID,
		AuthorName:  q.Author(),
		Votes:       q.Votes,
		AnswerCount: q.AnswerCount,
		CreatedAt:   q.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if detail {
		resp.Description = q.Description
	}
	return resp
}
