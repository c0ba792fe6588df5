package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/auth"
	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/session"
	"github.com/askboard/askboard-server/internal/sse"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/store/sqlite"
	"github.com/askboard/askboard-server/internal/validation"
)

// testEnv wires every service against temporary storage.
type testEnv struct {
	store     *store.Store
	db        *sqlite.Store
	tokens    *auth.TokenService
	sessions  *SessionService
	auth      *AuthService
	activity  *ActivityService
	questions *QuestionService
	answers   *AnswerService
	votes     *VoteService
	tags      *TagService
}

func testFeedOptions() FeedOptions {
	return FeedOptions{
		FeedPageSize:   3,
		AnswerPageSize: 20,
		MaxPageSize:    50,
		FetchTimeout:   5 * time.Second,
	}
}

func setupTestEnv(t *testing.T, allowAnonymous bool) *testEnv {
	t.Helper()
	dir := t.TempDir()

	s, err := store.New(filepath.Join(dir, "badger"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	db, err := sqlite.Open(filepath.Join(dir, "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	v := validation.New()
	sessions := NewSessionService(s, tokens, nil)
	activity := NewActivityService(db, nil)

	questions := NewQuestionService(s, activity, v, testFeedOptions(), nil)
	s.OnChange(func(sse.Event) { questions.Invalidate() })

	return &testEnv{
		store:     s,
		db:        db,
		tokens:    tokens,
		sessions:  sessions,
		auth:      NewAuthService(s, tokens, sessions, v, nil),
		activity:  activity,
		questions: questions,
		answers:   NewAnswerService(s, activity, testFeedOptions(), allowAnonymous, nil),
		votes:     NewVoteService(s, activity, nil),
		tags:      NewTagService(s, nil),
	}
}

// signUp registers a user and returns a context signed in as them.
func (e *testEnv) signUp(t *testing.T, name, email string) (context.Context, *domain.User) {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	ctx := session.WithSessionID(session.WithUser(context.Background(), resp.User), resp.SessionID)
	return ctx, resp.User
}

func (e *testEnv) ask(t *testing.T, ctx context.Context, title string, tags ...string) *domain.Question {
	t.Helper()
	q, err := e.questions.CreateQuestion(ctx, CreateQuestionRequest{
		Title:       title,
		Description: "Details about " + title,
		Tags:        tags,
	})
	require.NoError(t, err)
	return q
}
