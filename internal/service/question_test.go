package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/content"
	"github.com/askboard/askboard-server/internal/domain"
	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/validation"
)

func TestQuestionService_CreateQuestion(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, user := env.signUp(t, "Ada", "ada@example.com")

	q, err := env.questions.CreateQuestion(ctx, CreateQuestionRequest{
		Title:       "  How to use hooks  ",
		Description: "I want to share state.",
		Tags:        []string{"React", " react ", "Next.js"},
	})
	require.NoError(t, err)

	assert.Equal(t, "How to use hooks", q.Title)
	assert.Equal(t, []string{"react", "next-js"}, q.Tags)
	assert.Equal(t, user.ID, q.AuthorID)
	assert.Equal(t, "Ada", q.Author())

	tag, err := env.tags.GetTag(context.Background(), "next.js")
	require.NoError(t, err)
	assert.Equal(t, "Next.js", tag.Name)
	assert.Equal(t, 1, tag.QuestionCount)

	acts, err := env.activity.UserFeed(context.Background(), user.ID, 10, "")
	require.NoError(t, err)
	require.Len(t, acts.Activities, 1)
	assert.Equal(t, domain.ActivityQuestionAsked, acts.Activities[0].Type)
	assert.Equal(t, q.ID, acts.Activities[0].QuestionID)
}

func TestQuestionService_CreateQuestion_HTML(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")

	q, err := env.questions.CreateQuestion(ctx, CreateQuestionRequest{
		Title:             "Rich text",
		Description:       "<p>Use <strong>bold</strong> text</p>",
		DescriptionFormat: content.FormatHTML,
		Tags:              []string{"api"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Use **bold** text", q.Description)
}

func TestQuestionService_CreateQuestion_RequiresUser(t *testing.T) {
	env := setupTestEnv(t, false)

	_, err := env.questions.CreateQuestion(context.Background(), CreateQuestionRequest{
		Title: "t", Description: "d", Tags: []string{"api"},
	})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestQuestionService_CreateQuestion_Validation(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")

	tests := []struct {
		name    string
		req     CreateQuestionRequest
		field   string
		message string
	}{
		{"missing title", CreateQuestionRequest{Title: "  ", Description: "d", Tags: []string{"api"}}, "title", allFieldsRequired},
		{"missing description", CreateQuestionRequest{Title: "t", Description: "", Tags: []string{"api"}}, "description", allFieldsRequired},
		{"no tags", CreateQuestionRequest{Title: "t", Description: "d"}, "tags", allFieldsRequired},
		{"tags that normalize to nothing", CreateQuestionRequest{Title: "t", Description: "d", Tags: []string{"🐉", "--"}}, "tags", allFieldsRequired},
		{"too many tags", CreateQuestionRequest{Title: "t", Description: "d", Tags: []string{"a", "b", "c", "d", "e", "f"}}, "tags", "Too many tags."},
		{"bad format", CreateQuestionRequest{Title: "t", Description: "d", DescriptionFormat: "rtf", Tags: []string{"api"}}, "description_format", allFieldsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.questions.CreateQuestion(ctx, tt.req)
			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			assert.Equal(t, tt.message, de.Message)
			assert.Contains(t, de.Details, tt.field)
		})
	}

	// Nothing was written.
	res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	tags, err := env.tags.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestQuestionService_CreateQuestion_DuplicateSlugsWithinLimit(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")

	// Six raw tags, five distinct slugs.
	q := env.ask(t, ctx, "Many tags", "a", "b", "c", "d", "e", "E")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, q.Tags)
}

func TestQuestionService_ListQuestions(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")

	hooks := env.ask(t, ctx, "How to use hooks", "react")
	time.Sleep(2 * time.Millisecond)
	deploy := env.ask(t, ctx, "Deploy guide", "api")
	time.Sleep(2 * time.Millisecond)
	routing := env.ask(t, ctx, "React routing", "react")

	_, err := env.answers.SubmitAnswer(ctx, deploy.ID, "Use a container.")
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 3, res.PageSize)
		assert.Equal(t, []string{routing.ID, deploy.ID, hooks.ID}, questionIDs(res.Items))
	})

	t.Run("search and unanswered", func(t *testing.T) {
		res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{
			Search: "REACT", Filter: "Unanswered", Sort: "Newest",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{routing.ID}, questionIDs(res.Items))
	})

	t.Run("page clamped", func(t *testing.T) {
		res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{PageSize: 2, Page: 9})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Page)
		assert.Equal(t, 2, res.TotalPages)
		assert.Equal(t, []string{hooks.ID}, questionIDs(res.Items))
	})

	t.Run("page size capped", func(t *testing.T) {
		res, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{PageSize: 500})
		require.NoError(t, err)
		assert.Equal(t, 50, res.PageSize)
	})

	t.Run("invalid names", func(t *testing.T) {
		_, err := env.questions.ListQuestions(context.Background(), ListQuestionsRequest{Filter: "hot"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidQuery)
		assert.ErrorIs(t, err, feed.ErrInvalidFilter)

		_, err = env.questions.ListQuestions(context.Background(), ListQuestionsRequest{Sort: "oldest"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidQuery)
	})
}

func TestQuestionService_GetQuestion(t *testing.T) {
	env := setupTestEnv(t, false)
	ctx, _ := env.signUp(t, "Ada", "ada@example.com")
	q := env.ask(t, ctx, "Deploy guide", "api")

	got, err := env.questions.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, got.Title)

	_, err = env.questions.GetQuestion(context.Background(), "q-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

// fakeRepo serves questions from a function so fetch failures can be staged.
type fakeRepo struct {
	QuestionRepository
	fetch func(ctx context.Context) ([]*domain.Question, error)
}

func (f *fakeRepo) FetchQuestions(ctx context.Context) ([]*domain.Question, error) {
	return f.fetch(ctx)
}

func TestQuestionService_FetchFailures(t *testing.T) {
	var fail atomic.Bool
	repo := &fakeRepo{fetch: func(ctx context.Context) ([]*domain.Question, error) {
		if fail.Load() {
			return nil, errors.New("disk on fire")
		}
		return []*domain.Question{{Base: domain.Base{ID: "q-1", CreatedAt: time.Now()}, Title: "kept"}}, nil
	}}
	svc := NewQuestionService(repo, nil, validation.New(), testFeedOptions(), nil)

	_, err := svc.ListQuestions(context.Background(), ListQuestionsRequest{})
	require.NoError(t, err)

	fail.Store(true)
	err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrFetchFailed)

	// The last good snapshot keeps serving.
	res, err := svc.ListQuestions(context.Background(), ListQuestionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"q-1"}, questionIDs(res.Items))

	svc.Invalidate()
	_, err = svc.ListQuestions(context.Background(), ListQuestionsRequest{})
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeFetchFailed, de.Code)
	assert.True(t, de.Code.Retryable())
}

func TestQuestionService_FetchTimeout(t *testing.T) {
	repo := &fakeRepo{fetch: func(ctx context.Context) ([]*domain.Question, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	opts := testFeedOptions()
	opts.FetchTimeout = 20 * time.Millisecond
	svc := NewQuestionService(repo, nil, validation.New(), opts, nil)

	_, err := svc.ListQuestions(context.Background(), ListQuestionsRequest{})
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeFetchFailed, de.Code)
	assert.Contains(t, de.Message, "timed out")
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, 3, clampPageSize(0, 3, 50))
	assert.Equal(t, 3, clampPageSize(-1, 3, 50))
	assert.Equal(t, 10, clampPageSize(10, 3, 50))
	assert.Equal(t, 50, clampPageSize(99, 3, 50))
	assert.Equal(t, 99, clampPageSize(99, 3, 0))
	assert.Equal(t, 1, clampPageSize(0, 0, 0))
}

func questionIDs(qs []*domain.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
