package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/store"
)

// VoteService records upvotes. Each user counts at most once per target;
// repeated and concurrent votes by the same user are no-ops.
type VoteService struct {
	repo     VoteRepository
	activity *ActivityService
	logger   *slog.Logger
}

// NewVoteService creates a vote service. activity may be nil.
func NewVoteService(repo VoteRepository, activity *ActivityService, logger *slog.Logger) *VoteService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VoteService{repo: repo, activity: activity, logger: logger}
}

// VoteAnswer upvotes an answer as the signed-in user. Without a user the
// call does nothing and reports Voted false.
func (s *VoteService) VoteAnswer(ctx context.Context, answerID string) (domain.VoteResult, error) {
	user, _ := s.repo.CurrentUser(ctx)

	var userID string
	if user != nil {
		userID = user.ID
	}

	result, err := s.repo.Vote(ctx, answerID, userID)
	if err != nil {
		return result, mapVoteError(err, "answer not found")
	}

	if result.Voted {
		s.recordAnswerVote(ctx, user, answerID)
		s.logger.Debug("answer voted", "answer_id", answerID, "user_id", userID, "votes", result.Votes)
	}
	return result, nil
}

// VoteQuestion upvotes a question as the signed-in user. Without a user the
// call does nothing and reports Voted false.
func (s *VoteService) VoteQuestion(ctx context.Context, questionID string) (domain.VoteResult, error) {
	user, _ := s.repo.CurrentUser(ctx)

	var userID string
	if user != nil {
		userID = user.ID
	}

	result, err := s.repo.CastVote(ctx, domain.TargetQuestion, questionID, userID)
	if err != nil {
		return result, mapVoteError(err, "question not found")
	}

	if result.Voted {
		if q, err := s.repo.GetQuestion(ctx, questionID); err == nil {
			s.activity.RecordVote(ctx, user, domain.ActivityQuestionVoted, q, "")
		}
		s.logger.Debug("question voted", "question_id", questionID, "user_id", userID, "votes", result.Votes)
	}
	return result, nil
}

// HasVoted reports whether the signed-in user has voted on the target.
// Anonymous callers never have.
func (s *VoteService) HasVoted(ctx context.Context, target domain.VoteTarget, targetID string) (bool, error) {
	user, ok := s.repo.CurrentUser(ctx)
	if !ok {
		return false, nil
	}
	return s.repo.HasVoted(ctx, target, targetID, user.ID)
}

func (s *VoteService) recordAnswerVote(ctx context.Context, user *domain.User, answerID string) {
	a, err := s.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return
	}
	q, err := s.repo.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return
	}
	s.activity.RecordVote(ctx, user, domain.ActivityAnswerVoted, q, a.ID)
}

// busyMessage is shown when a write keeps losing storage conflicts.
const busyMessage = "The server is busy, please try again."

func mapVoteError(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation("invalid vote target").WithCause(err)
	case errors.Is(err, store.ErrBusy):
		return domainerrors.Conflict(busyMessage).WithCause(err)
	}
	return fmt.Errorf("vote: %w", err)
}
