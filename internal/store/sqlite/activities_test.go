package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/store"
)

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newActivity(id, userID string, typ domain.ActivityType, offset time.Duration) *domain.Activity {
	return &domain.Activity{
		ID:              id,
		UserID:          userID,
		Type:            typ,
		CreatedAt:       baseTime.Add(offset),
		UserDisplayName: "User " + userID,
		QuestionID:      "q-1",
		QuestionTitle:   "How to use hooks",
	}
}

func activityIDs(as []*domain.Activity) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func TestCreateAndGetActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newActivity("act-1", "u-1", domain.ActivityAnswerPosted, 0)
	a.AnswerID = "a-1"
	require.NoError(t, s.CreateActivity(ctx, a))

	got, err := s.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityAnswerPosted, got.Type)
	assert.Equal(t, "a-1", got.AnswerID)
	assert.Equal(t, "How to use hooks", got.QuestionTitle)
	assert.True(t, baseTime.Equal(got.CreatedAt))

	err = s.CreateActivity(ctx, a)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.GetActivity(ctx, "act-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateActivity_FillsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Activity{UserID: "u-1", Type: domain.ActivityQuestionAsked, QuestionID: "q-1"}
	require.NoError(t, s.CreateActivity(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AnswerID)
}

func TestGetActivitiesFeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// act-b and act-c share a timestamp; id breaks the tie.
	for _, a := range []*domain.Activity{
		newActivity("act-a", "u-1", domain.ActivityQuestionAsked, 0),
		newActivity("act-b", "u-2", domain.ActivityAnswerPosted, time.Minute),
		newActivity("act-c", "u-1", domain.ActivityAnswerVoted, time.Minute),
		newActivity("act-d", "u-2", domain.ActivityQuestionVoted, 2*time.Minute+500*time.Millisecond),
	} {
		require.NoError(t, s.CreateActivity(ctx, a))
	}

	all, err := s.GetActivitiesFeed(ctx, 10, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-d", "act-c", "act-b", "act-a"}, activityIDs(all))

	page1, err := s.GetActivitiesFeed(ctx, 2, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-d", "act-c"}, activityIDs(page1))

	last := page1[len(page1)-1]
	page2, err := s.GetActivitiesFeed(ctx, 2, &last.CreatedAt, last.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"act-b", "act-a"}, activityIDs(page2))

	// Without an id the cursor skips everything at that instant.
	strict, err := s.GetActivitiesFeed(ctx, 10, &last.CreatedAt, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-a"}, activityIDs(strict))
}

func TestGetUserActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateActivity(ctx, newActivity("act-a", "u-1", domain.ActivityQuestionAsked, 0)))
	require.NoError(t, s.CreateActivity(ctx, newActivity("act-b", "u-2", domain.ActivityAnswerPosted, time.Second)))
	require.NoError(t, s.CreateActivity(ctx, newActivity("act-c", "u-1", domain.ActivityAnswerVoted, 2*time.Second)))

	mine, err := s.GetUserActivities(ctx, "u-1", 10, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-c", "act-a"}, activityIDs(mine))

	none, err := s.GetUserActivities(ctx, "u-9", 10, nil, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	counts, err := s.CountUserActivities(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.ActivityType]int{
		domain.ActivityQuestionAsked: 1,
		domain.ActivityAnswerVoted:   1,
	}, counts)

	byQuestion, err := s.GetQuestionActivities(ctx, "q-1", 2, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-c", "act-b"}, activityIDs(byQuestion))
}
