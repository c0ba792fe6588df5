package api

import (
	"github.com/askboard/askboard-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth      *service.AuthService
	Sessions  *service.SessionService
	Questions *service.QuestionService
	Answers   *service.AnswerService
	Votes     *service.VoteService
	Tags      *service.TagService
	Search    *service.SearchService // nil disables /search
	Activity  *service.ActivityService
}
