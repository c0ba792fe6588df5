package service

import (
	"context"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/store"
)

// Repository is the storage boundary the feed services depend on.
// *store.Store satisfies it; tests may substitute a fake.
type Repository interface {
	FetchQuestions(ctx context.Context) ([]*domain.Question, error)
	FetchAnswers(ctx context.Context, questionID string) ([]*domain.Answer, error)
	SubmitAnswer(ctx context.Context, a *domain.Answer) error
	Vote(ctx context.Context, answerID, userID string) (domain.VoteResult, error)
	// CurrentUser returns the signed-in user carried by ctx, if any.
	CurrentUser(ctx context.Context) (*domain.User, bool)
}

// QuestionRepository adds the question writes and lookups QuestionService needs.
type QuestionRepository interface {
	Repository
	CreateQuestion(ctx context.Context, q *domain.Question, tagNames map[string]string) error
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
}

// VoteRepository adds question votes and marker lookups.
type VoteRepository interface {
	Repository
	CastVote(ctx context.Context, target domain.VoteTarget, targetID, userID string) (domain.VoteResult, error)
	HasVoted(ctx context.Context, target domain.VoteTarget, targetID, userID string) (bool, error)
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
	GetAnswer(ctx context.Context, id string) (*domain.Answer, error)
}

var (
	_ Repository         = (*store.Store)(nil)
	_ QuestionRepository = (*store.Store)(nil)
	_ VoteRepository     = (*store.Store)(nil)
)
