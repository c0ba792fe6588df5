package api

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/auth"
	"github.com/askboard/askboard-server/internal/search"
	"github.com/askboard/askboard-server/internal/service"
	"github.com/askboard/askboard-server/internal/sse"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/store/sqlite"
	"github.com/askboard/askboard-server/internal/validation"
)

// testEnvelope is the decoded form of every JSON response.
type testEnvelope[T any] struct {
	V       int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api        humatest.TestAPI
	sseManager *sse.Manager
}

type testOptions struct {
	allowAnonymous bool
	opts           Options
}

// setupTestServer creates a server backed by temporary storage.
func setupTestServer(t *testing.T, to testOptions) *testServer {
	t.Helper()
	dir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sseManager := sse.NewManager(logger)

	st, err := store.New(filepath.Join(dir, "badger"), nil, sseManager)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	db, err := sqlite.Open(filepath.Join(dir, "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dir, "search")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	feedOpts := service.FeedOptions{
		FeedPageSize:   3,
		AnswerPageSize: 20,
		MaxPageSize:    50,
		FetchTimeout:   5 * time.Second,
	}

	v := validation.New()
	sessions := service.NewSessionService(st, tokens, logger)
	activity := service.NewActivityService(db, logger)
	questions := service.NewQuestionService(st, activity, v, feedOpts, logger)
	st.OnChange(func(sse.Event) { questions.Invalidate() })

	services := &Services{
		Auth:      service.NewAuthService(st, tokens, sessions, v, logger),
		Sessions:  sessions,
		Questions: questions,
		Answers:   service.NewAnswerService(st, activity, feedOpts, to.allowAnonymous, logger),
		Votes:     service.NewVoteService(st, activity, logger),
		Tags:      service.NewTagService(st, logger),
		Search:    service.NewSearchService(index, st, logger),
		Activity:  activity,
	}

	s := NewServer(st, db, services, sseManager, to.opts, logger)

	return &testServer{
		Server:     s,
		api:        humatest.Wrap(t, s.api),
		sseManager: sseManager,
	}
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

// register creates an account and returns its tokens.
func (ts *testServer) register(t *testing.T, name, email string) AuthResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     name,
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())
	return decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// ask posts a question and returns it.
func (ts *testServer) ask(t *testing.T, token, title string, tags ...string) QuestionResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/questions", bearer(token), map[string]any{
		"title":       title,
		"description": "Details about " + title,
		"tags":        tags,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "ask failed: %s", resp.Body.String())
	return decodeEnvelope[QuestionResponse](t, resp.Body.Bytes()).Data
}

func TestServer_OpenAPI(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	assert.Contains(t, doc, "openapi")
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{
		"/health",
		"/api/v1/auth/register",
		"/api/v1/questions",
		"/api/v1/questions/{id}/answers",
		"/api/v1/answers/{id}/vote",
		"/api/v1/tags/suggest",
		"/api/v1/search",
		"/api/v1/activity",
		"/api/v1/users/me/activity",
	} {
		assert.Contains(t, paths, p)
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, 1, env.V)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestServer_EventStream(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ts.sseManager.Start(ctx)

	srv := newHTTPTestServer(t, ts.Server)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?question_id=q-1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	line := readLine(t, resp)
	assert.Equal(t, "event: connected", line)

	require.Eventually(t, func() bool { return ts.sseManager.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func newHTTPTestServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func readLine(t *testing.T, resp *http.Response) string {
	t.Helper()
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}
