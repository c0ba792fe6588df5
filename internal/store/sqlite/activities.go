package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/store"
)

// activityColumns is the ordered list of columns selected in activity queries.
// Must match the scan order in scanActivity.
const activityColumns = `id, user_id, type, created_at,
	user_display_name, question_id, question_title, answer_id`

// scanActivity scans a sql.Row (or sql.Rows via its Scan method) into a domain.Activity.
func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var (
		a            domain.Activity
		activityType string
		createdAt    string
		answerID     sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&a.UserID,
		&activityType,
		&createdAt,
		&a.UserDisplayName,
		&a.QuestionID,
		&a.QuestionTitle,
		&answerID,
	)
	if err != nil {
		return nil, err
	}

	a.Type = domain.ActivityType(activityType)
	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if answerID.Valid {
		a.AnswerID = answerID.String
	}
	return &a, nil
}

// CreateActivity inserts a new activity. A missing ID is generated and a zero
// CreatedAt is set to now.
// Returns store.ErrAlreadyExists if the activity ID already exists.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, type, created_at,
			user_display_name, question_id, question_title, answer_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		string(activity.Type),
		formatTime(activity.CreatedAt),
		activity.UserDisplayName,
		activity.QuestionID,
		activity.QuestionTitle,
		nullString(activity.AnswerID),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("activity already exists")
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// GetActivity retrieves a single activity by ID.
// Returns store.ErrNotFound if the activity does not exist.
func (s *Store) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("activity not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivitiesFeed retrieves the global activity feed sorted by created_at descending.
// Use 'before' for cursor-based pagination (pass the CreatedAt of the last item).
// 'beforeID' provides deterministic cursor pagination when multiple activities share a timestamp.
// Returns up to 'limit' activities.
func (s *Store) GetActivitiesFeed(ctx context.Context, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	return s.queryActivities(ctx, "", nil, limit, before, beforeID)
}

// GetUserActivities retrieves one user's activities, newest first, with the
// same cursor semantics as GetActivitiesFeed.
func (s *Store) GetUserActivities(ctx context.Context, userID string, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	return s.queryActivities(ctx, "user_id = ?", []any{userID}, limit, before, beforeID)
}

// GetQuestionActivities retrieves activities about one question, newest first.
func (s *Store) GetQuestionActivities(ctx context.Context, questionID string, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	return s.queryActivities(ctx, "question_id = ?", []any{questionID}, limit, before, beforeID)
}

// CountUserActivities returns how many activities of each type a user has.
// Types with no rows are absent from the map.
func (s *Store) CountUserActivities(ctx context.Context, userID string) (map[domain.ActivityType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM activities WHERE user_id = ? GROUP BY type`, userID)
	if err != nil {
		return nil, fmt.Errorf("count activities: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ActivityType]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[domain.ActivityType(typ)] = n
	}
	return counts, rows.Err()
}

// queryActivities runs a feed query. where is an optional extra condition
// with its arguments.
func (s *Store) queryActivities(ctx context.Context, where string, args []any, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	var conds []string
	if where != "" {
		conds = append(conds, where)
	}

	if before != nil && beforeID != "" {
		ts := formatTime(*before)
		conds = append(conds, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, ts, ts, beforeID)
	} else if before != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, formatTime(*before))
	}

	query := `SELECT ` + activityColumns + ` FROM activities`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := []*domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}
