package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/id"
	"github.com/askboard/askboard-server/internal/store"
)

// MaxAnswerLength bounds an answer body in runes.
const MaxAnswerLength = 20000

// AnswerService posts answers and serves a question's answer feed.
type AnswerService struct {
	repo           QuestionRepository
	activity       *ActivityService
	opts           FeedOptions
	allowAnonymous bool
	logger         *slog.Logger
}

// NewAnswerService creates an answer service. When allowAnonymous is false,
// SubmitAnswer requires a signed-in user.
func NewAnswerService(
	repo QuestionRepository,
	activity *ActivityService,
	opts FeedOptions,
	allowAnonymous bool,
	logger *slog.Logger,
) *AnswerService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AnswerService{
		repo:           repo,
		activity:       activity,
		opts:           opts,
		allowAnonymous: allowAnonymous,
		logger:         logger,
	}
}

// SubmitAnswer posts text as an answer to questionID. The question's answer
// count goes up in the same write.
func (s *AnswerService) SubmitAnswer(ctx context.Context, questionID, text string) (*domain.Answer, error) {
	user, signedIn := s.repo.CurrentUser(ctx)
	if !signedIn && !s.allowAnonymous {
		return nil, domainerrors.Unauthorized("Authentication required")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainerrors.ValidationWithDetails("Answer cannot be empty.", map[string]string{
			"text": "is required",
		})
	}
	if n := len([]rune(text)); n > MaxAnswerLength {
		return nil, domainerrors.ValidationWithDetails("Answer is too long.", map[string]string{
			"text": fmt.Sprintf("must not exceed %d characters", MaxAnswerLength),
		})
	}

	answerID, err := id.Generate(id.PrefixAnswer)
	if err != nil {
		return nil, fmt.Errorf("generate answer ID: %w", err)
	}

	a := &domain.Answer{
		Base:       domain.Base{ID: answerID},
		QuestionID: questionID,
		Text:       text,
	}
	if signedIn {
		a.AuthorID = user.ID
		a.AuthorName = user.Name()
	}
	a.InitTimestamps()

	if err := s.repo.SubmitAnswer(ctx, a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("question not found")
		}
		if errors.Is(err, store.ErrBusy) {
			return nil, domainerrors.Conflict(busyMessage).WithCause(err)
		}
		return nil, fmt.Errorf("submit answer: %w", err)
	}

	if signedIn {
		if q, err := s.repo.GetQuestion(ctx, questionID); err == nil {
			s.activity.RecordAnswerPosted(ctx, user, q, a)
		}
	}

	s.logger.Info("answer submitted",
		"answer_id", a.ID,
		"question_id", questionID,
		"anonymous", a.IsAnonymous(),
	)
	return a, nil
}

// ListAnswersRequest selects one page of a question's answers.
type ListAnswersRequest struct {
	QuestionID string
	Sort       string
	Page       int
	PageSize   int
}

// ListAnswers runs the feed pipeline over a question's answers. Answers are
// never filtered; Sort defaults to newest first.
func (s *AnswerService) ListAnswers(ctx context.Context, req ListAnswersRequest) (feed.Result[*domain.Answer], error) {
	srt, err := feed.ParseSort(req.Sort)
	if err != nil {
		return feed.Result[*domain.Answer]{}, domainerrors.InvalidQuery(fmt.Sprintf("Unknown sort %q.", req.Sort)).WithCause(err)
	}

	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	answers, err := s.repo.FetchAnswers(fetchCtx, req.QuestionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return feed.Result[*domain.Answer]{}, domainerrors.NotFound("question not found")
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return feed.Result[*domain.Answer]{}, err
		}
		return feed.Result[*domain.Answer]{}, fetchFailed(&feed.FetchError{Err: err}, "Could not load answers.")
	}

	return feed.Run(answers, feed.Query{
		Filter:   feed.FilterAll,
		Sort:     srt,
		PageSize: clampPageSize(req.PageSize, s.opts.AnswerPageSize, s.opts.MaxPageSize),
		Page:     req.Page,
		Clamp:    true,
	})
}
