package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askboard/askboard-server/internal/content"
	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/id"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/util"
	"github.com/askboard/askboard-server/internal/validation"
)

const (
	// MaxTags bounds the tags one question may carry.
	MaxTags = 5

	allFieldsRequired = "All fields are required."
)

// FeedOptions holds paging limits for the question and answer feeds.
type FeedOptions struct {
	FeedPageSize   int
	AnswerPageSize int
	MaxPageSize    int
	FetchTimeout   time.Duration
}

// QuestionService serves the question feed and posts new questions.
//
// The feed reads from an in-memory snapshot of every question. Store change
// events call Invalidate so the next read refetches.
type QuestionService struct {
	repo      QuestionRepository
	snapshot  *feed.Snapshot[*domain.Question]
	activity  *ActivityService
	validator *validation.Validator
	opts      FeedOptions
	logger    *slog.Logger
}

// NewQuestionService creates a question service. activity may be nil.
func NewQuestionService(
	repo QuestionRepository,
	activity *ActivityService,
	validator *validation.Validator,
	opts FeedOptions,
	logger *slog.Logger,
) *QuestionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QuestionService{
		repo:      repo,
		snapshot:  feed.NewSnapshot(repo.FetchQuestions, opts.FetchTimeout),
		activity:  activity,
		validator: validator,
		opts:      opts,
		logger:    logger,
	}
}

// CreateQuestionRequest contains a new question as typed by its author.
type CreateQuestionRequest struct {
	Title             string         `json:"title" validate:"required,notblank,max=200"`
	Description       string         `json:"description" validate:"required,notblank,max=20000"`
	DescriptionFormat content.Format `json:"description_format" validate:"omitempty,oneof=markdown html"`
	Tags              []string       `json:"tags" validate:"required,min=1,max=20,dive,max=40"`
}

// CreateQuestion posts a question as the signed-in user.
func (s *QuestionService) CreateQuestion(ctx context.Context, req CreateQuestionRequest) (*domain.Question, error) {
	user, ok := s.repo.CurrentUser(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("Authentication required")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = content.Normalize(req.Description, req.DescriptionFormat)
	if err := s.validator.ValidateWithMessage(req, allFieldsRequired); err != nil {
		return nil, err
	}

	// Distinctness is judged on slugs: "React" and "react " are one tag.
	slugs := util.NormalizeTags(req.Tags)
	if len(slugs) == 0 {
		return nil, domainerrors.ValidationWithDetails(allFieldsRequired, map[string]string{
			"tags": "is required",
		})
	}
	if len(slugs) > MaxTags {
		return nil, domainerrors.ValidationWithDetails("Too many tags.", map[string]string{
			"tags": fmt.Sprintf("must not contain more than %d items", MaxTags),
		})
	}

	tagNames := make(map[string]string, len(slugs))
	for _, raw := range req.Tags {
		slug := util.NormalizeTagSlug(raw)
		if _, seen := tagNames[slug]; !seen && slug != "" {
			tagNames[slug] = strings.TrimSpace(raw)
		}
	}

	questionID, err := id.Generate(id.PrefixQuestion)
	if err != nil {
		return nil, fmt.Errorf("generate question ID: %w", err)
	}

	q := &domain.Question{
		Base:        domain.Base{ID: questionID},
		Title:       req.Title,
		Description: req.Description,
		Tags:        slugs,
		AuthorID:    user.ID,
		AuthorName:  user.Name(),
	}
	q.InitTimestamps()

	if err := s.repo.CreateQuestion(ctx, q, tagNames); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	// The store event also invalidates; doing it here keeps read-your-write
	// when no listener is wired.
	s.snapshot.Invalidate()
	s.activity.RecordQuestionAsked(ctx, user, q)

	s.logger.Info("question created", "question_id", q.ID, "user_id", user.ID, "tags", slugs)
	return q, nil
}

// GetQuestion returns a single question.
func (s *QuestionService) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	q, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("question not found")
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListQuestionsRequest selects one page of the question feed. Filter and
// Sort accept the spellings feed.ParseFilter and feed.ParseSort do.
type ListQuestionsRequest struct {
	Search   string
	Filter   string
	Sort     string
	Page     int
	PageSize int
}

// ListQuestions runs the feed pipeline over the current question snapshot.
// Out of range pages are clamped to the last page.
func (s *QuestionService) ListQuestions(ctx context.Context, req ListQuestionsRequest) (feed.Result[*domain.Question], error) {
	q, err := s.buildQuery(req.Search, req.Filter, req.Sort, req.Page, req.PageSize, s.opts.FeedPageSize)
	if err != nil {
		return feed.Result[*domain.Question]{}, err
	}

	questions, err := s.snapshot.Get(ctx)
	if err != nil {
		return feed.Result[*domain.Question]{}, fetchFailed(err, "Could not load questions.")
	}

	return feed.Run(questions, q)
}

// Invalidate marks the question snapshot stale.
func (s *QuestionService) Invalidate() {
	s.snapshot.Invalidate()
}

// SnapshotFetchedAt returns when the question snapshot was last loaded, zero
// if it has not been.
func (s *QuestionService) SnapshotFetchedAt() time.Time {
	return s.snapshot.FetchedAt()
}

// Refresh reloads the snapshot immediately.
func (s *QuestionService) Refresh(ctx context.Context) error {
	if _, err := s.snapshot.Refresh(ctx); err != nil {
		return fetchFailed(err, "Could not load questions.")
	}
	return nil
}

func (s *QuestionService) buildQuery(search, filter, sort string, page, pageSize, defaultSize int) (feed.Query, error) {
	f, err := feed.ParseFilter(filter)
	if err != nil {
		return feed.Query{}, domainerrors.InvalidQuery(fmt.Sprintf("Unknown filter %q.", filter)).WithCause(err)
	}
	srt, err := feed.ParseSort(sort)
	if err != nil {
		return feed.Query{}, domainerrors.InvalidQuery(fmt.Sprintf("Unknown sort %q.", sort)).WithCause(err)
	}

	return feed.Query{
		Search:   search,
		Filter:   f,
		Sort:     srt,
		PageSize: clampPageSize(pageSize, defaultSize, s.opts.MaxPageSize),
		Page:     page,
		Clamp:    true,
	}, nil
}

// clampPageSize applies the default for a missing size and caps it at max.
func clampPageSize(size, def, maxSize int) int {
	if size < 1 {
		size = def
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return max(size, 1)
}

// fetchFailed converts a snapshot failure into a retryable domain error.
// Cancellation by the caller is passed through untouched.
func fetchFailed(err error, msg string) error {
	var fe *feed.FetchError
	if !errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if fe.Timeout() {
		return domainerrors.FetchFailed(err, msg+" The request timed out.")
	}
	return domainerrors.FetchFailed(err, msg)
}
