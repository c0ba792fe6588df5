package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/store"
)

func TestVoteService_VoteAnswer(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	voterCtx, voter := env.signUp(t, "Grace", "grace@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")
	a, err := env.answers.SubmitAnswer(ctx, q.ID, "Use a container.")
	require.NoError(t, err)

	res, err := env.votes.VoteAnswer(voterCtx, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Voted)
	assert.Equal(t, domain.VoteStateVoted, res.State)
	assert.Equal(t, 1, res.Votes)

	// Twice and thrice change nothing.
	for range 2 {
		res, err = env.votes.VoteAnswer(voterCtx, a.ID)
		require.NoError(t, err)
		assert.False(t, res.Voted)
		assert.Equal(t, 1, res.Votes)
	}

	voted, err := env.votes.HasVoted(voterCtx, domain.TargetAnswer, a.ID)
	require.NoError(t, err)
	assert.True(t, voted)

	counts, err := env.activity.Counts(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.ActivityAnswerVoted])
}

func TestVoteService_Anonymous(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")
	a, err := env.answers.SubmitAnswer(ctx, q.ID, "Use a container.")
	require.NoError(t, err)

	res, err := env.votes.VoteAnswer(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, res.Voted)
	assert.Equal(t, domain.VoteStateUnvoted, res.State)
	assert.Zero(t, res.Votes)

	voted, err := env.votes.HasVoted(context.Background(), domain.TargetAnswer, a.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	// Missing targets are still a no-op without a user.
	_, err = env.votes.VoteAnswer(context.Background(), "a-missing")
	assert.NoError(t, err)
}

func TestVoteService_NotFound(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")

	_, err := env.votes.VoteAnswer(ctx, "a-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.votes.VoteQuestion(ctx, "q-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestMapVoteError_Busy(t *testing.T) {
	err := mapVoteError(fmt.Errorf("cast vote: %w", store.ErrBusy), "answer not found")

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeConflict, de.Code)
	assert.True(t, de.Code.Retryable())
	assert.ErrorIs(t, err, store.ErrBusy)
}

func TestVoteService_VoteQuestion(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	voterCtx, _ := env.signUp(t, "Grace", "grace@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	res, err := env.votes.VoteQuestion(voterCtx, q.ID)
	require.NoError(t, err)
	assert.True(t, res.Voted)

	res, err = env.votes.VoteQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Votes)

	feedRes, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{Sort: "most_voted"})
	require.NoError(t, err)
	require.Len(t, feedRes.Items, 1)
	assert.Equal(t, 2, feedRes.Items[0].Votes)
}

func TestVoteService_ConcurrentDoubleVote(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	voterCtx, voter := env.signUp(t, "Grace", "grace@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")
	a, err := env.answers.SubmitAnswer(ctx, q.ID, "Use a container.")
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range workers {
		wg.Go(func() {
			res, err := env.votes.VoteAnswer(voterCtx, a.ID)
			assert.NoError(t, err)
			if res.Voted {
				mu.Lock()
				created++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	got, err := env.store.GetAnswer(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	markers, err := env.store.CountVotes(context.Background(), domain.TargetAnswer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, markers)

	ok, err := env.store.HasVoted(context.Background(), domain.TargetAnswer, a.ID, voter.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
