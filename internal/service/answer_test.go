package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
)

func TestAnswerService_SubmitAnswer(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, user := env.signUp(t, "Ada", "ada@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	a, err := env.answers.SubmitAnswer(ctx, q.ID, "  Use a container.  ")
	require.NoError(t, err)
	assert.Equal(t, "Use a container.", a.Text)
	assert.Equal(t, user.ID, a.AuthorID)
	assert.False(t, a.IsAnonymous())

	got, err := env.questions.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswerCount)

	// The feed sees the new count without an explicit refresh.
	res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{Filter: "unanswered"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	acts, err := env.activity.Counts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, acts[domain.ActivityAnswerPosted])
}

func TestAnswerService_SubmitAnswer_Errors(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	_, err := env.answers.SubmitAnswer(ctx, q.ID, "   \n\t")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.answers.SubmitAnswer(ctx, q.ID, strings.Repeat("x", MaxAnswerLength+1))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.answers.SubmitAnswer(ctx, "q-missing", "hello")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Anonymous answers are off by default.
	_, err = env.answers.SubmitAnswer(context.Background(), q.ID, "hello")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	got, err := env.questions.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AnswerCount)
}

func TestAnswerService_SubmitAnswer_Anonymous(t *testing.T) {
	env := setupTestEnv(t, true)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	a, err := env.answers.SubmitAnswer(context.Background(), q.ID, "Try a PaaS.")
	require.NoError(t, err)
	assert.True(t, a.IsAnonymous())
	assert.Equal(t, domain.AnonymousName, a.Author())

	got, err := env.questions.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswerCount)
}

func TestAnswerService_ListAnswers(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	voterCtx, _ := env.signUp(t, "Grace", "grace@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	first, err := env.answers.SubmitAnswer(ctx, q.ID, "First")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := env.answers.SubmitAnswer(ctx, q.ID, "Second")
	require.NoError(t, err)

	_, err = env.votes.VoteAnswer(voterCtx, first.ID)
	require.NoError(t, err)

	res, err := env.answers.ListAnswers(context.Background(), ListAnswersRequest{QuestionID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, answerIDs(res.Items))
	assert.Equal(t, 20, res.PageSize)

	res, err = env.answers.ListAnswers(context.Background(), ListAnswersRequest{QuestionID: q.ID, Sort: "MostVoted"})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, answerIDs(res.Items))
	assert.Equal(t, 1, res.Items[0].Votes)

	res, err = env.answers.ListAnswers(context.Background(), ListAnswersRequest{QuestionID: q.ID, PageSize: 1, Page: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, []string{first.ID}, answerIDs(res.Items))

	_, err = env.answers.ListAnswers(context.Background(), ListAnswersRequest{QuestionID: q.ID, Sort: "random"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidQuery)

	_, err = env.answers.ListAnswers(context.Background(), ListAnswersRequest{QuestionID: "q-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func answerIDs(as []*domain.Answer) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}
