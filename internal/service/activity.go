package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/store/sqlite"
)

// ActivityService records and lists forum activity. Recording is best
// effort: failures are logged and never reach the caller, so a broken
// activity database cannot block posting.
//
// A nil *ActivityService records nothing.
type ActivityService struct {
	db     *sqlite.Store
	logger *slog.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(db *sqlite.Store, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ActivityService{db: db, logger: logger}
}

// RecordQuestionAsked records that user posted q.
func (s *ActivityService) RecordQuestionAsked(ctx context.Context, user *domain.User, q *domain.Question) {
	s.record(ctx, user, domain.ActivityQuestionAsked, q, "")
}

// RecordAnswerPosted records that user answered q with a.
func (s *ActivityService) RecordAnswerPosted(ctx context.Context, user *domain.User, q *domain.Question, a *domain.Answer) {
	s.record(ctx, user, domain.ActivityAnswerPosted, q, a.ID)
}

// RecordVote records a new vote on q, or on answerID within q.
func (s *ActivityService) RecordVote(ctx context.Context, user *domain.User, typ domain.ActivityType, q *domain.Question, answerID string) {
	s.record(ctx, user, typ, q, answerID)
}

func (s *ActivityService) record(ctx context.Context, user *domain.User, typ domain.ActivityType, q *domain.Question, answerID string) {
	if s == nil || user == nil || q == nil {
		return
	}

	activity := &domain.Activity{
		UserID:          user.ID,
		Type:            typ,
		UserDisplayName: user.Name(),
		QuestionID:      q.ID,
		QuestionTitle:   q.Title,
		AnswerID:        answerID,
	}

	// Recording outlives request cancellation.
	ctx = context.WithoutCancel(ctx)
	if err := s.db.CreateActivity(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity",
			"type", typ,
			"user_id", user.ID,
			"question_id", q.ID,
			"error", err,
		)
	}
}

// ActivityPage is one page of an activity feed. NextCursor is empty on the
// last page.
type ActivityPage struct {
	Activities []*domain.Activity `json:"activities"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// Feed returns the global activity feed, newest first.
func (s *ActivityService) Feed(ctx context.Context, limit int, cursor string) (*ActivityPage, error) {
	return s.page(ctx, limit, cursor, func(limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
		return s.db.GetActivitiesFeed(ctx, limit, before, beforeID)
	})
}

// UserFeed returns one user's activity, newest first.
func (s *ActivityService) UserFeed(ctx context.Context, userID string, limit int, cursor string) (*ActivityPage, error) {
	return s.page(ctx, limit, cursor, func(limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
		return s.db.GetUserActivities(ctx, userID, limit, before, beforeID)
	})
}

// QuestionFeed returns one question's activity, newest first.
func (s *ActivityService) QuestionFeed(ctx context.Context, questionID string, limit int, cursor string) (*ActivityPage, error) {
	return s.page(ctx, limit, cursor, func(limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
		return s.db.GetQuestionActivities(ctx, questionID, limit, before, beforeID)
	})
}

// Counts returns how many activities of each type a user has.
func (s *ActivityService) Counts(ctx context.Context, userID string) (map[domain.ActivityType]int, error) {
	return s.db.CountUserActivities(ctx, userID)
}

type activityQuery func(limit int, before *time.Time, beforeID string) ([]*domain.Activity, error)

func (s *ActivityService) page(ctx context.Context, limit int, cursor string, query activityQuery) (*ActivityPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := store.PaginationParams{Limit: limit, Cursor: cursor}
	p.Validate()
	limit = p.Limit

	var (
		before   *time.Time
		beforeID string
	)
	if p.Cursor != "" {
		t, id, err := store.DecodeTimeCursor(p.Cursor)
		if err != nil {
			return nil, domainerrors.InvalidQuery("Invalid cursor.").WithCause(err)
		}
		before, beforeID = &t, id
	}

	// One extra row tells whether another page exists.
	rows, err := query(limit+1, before, beforeID)
	if err != nil {
		return nil, domainerrors.FetchFailed(err, "Could not load activity.")
	}

	page := &ActivityPage{Activities: rows}
	if len(rows) > limit {
		page.Activities = rows[:limit]
		last := page.Activities[limit-1]
		page.NextCursor = store.EncodeTimeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}
