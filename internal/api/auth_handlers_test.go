package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_Register(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	resp := ts.register(t, "Ada Lovelace", "ada@example.com")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)
	assert.Equal(t, "Ada Lovelace", resp.User.DisplayName)
	assert.Equal(t, "AL", resp.User.Initials)
	assert.Regexp(t, `^#[0-9A-F]{6}$`, resp.User.AvatarColor)
}

func TestAuth_Register_Errors(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	ts.register(t, "Ada", "ada@example.com")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "duplicate email",
			body:   map[string]any{"name": "Other", "email": "ada@example.com", "password": "correct horse battery"},
			status: http.StatusConflict,
			code:   "ALREADY_EXISTS",
		},
		{
			name:   "short password",
			body:   map[string]any{"name": "Grace", "email": "grace@example.com", "password": "short"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "missing fields",
			body:   map[string]any{},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "bad email",
			body:   map[string]any{"name": "Grace", "email": "not-an-email", "password": "correct horse battery"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/register", tt.body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
			env := decodeEnvelope[any](t, resp.Body.Bytes())
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestAuth_Login(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	ts.register(t, "Ada", "ada@example.com")

	resp := ts.api.Post("/api/v1/auth/login", "User-Agent: askboard-test", map[string]any{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	login := decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data
	assert.NotEmpty(t, login.AccessToken)

	resp = ts.api.Get("/api/v1/users/me/sessions", bearer(login.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	sessions := decodeEnvelope[SessionsResponse](t, resp.Body.Bytes()).Data.Sessions
	require.Len(t, sessions, 2)

	var current int
	for _, s := range sessions {
		if s.Current {
			current++
			assert.Equal(t, login.SessionID, s.ID)
			assert.Equal(t, "askboard-test", s.UserAgent)
		}
	}
	assert.Equal(t, 1, current)
}

func TestAuth_Login_InvalidCredentials(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	ts.register(t, "Ada", "ada@example.com")

	for _, body := range []map[string]any{
		{"email": "ada@example.com", "password": "wrong password"},
		{"email": "nobody@example.com", "password": "correct horse battery"},
	} {
		resp := ts.api.Post("/api/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		env := decodeEnvelope[any](t, resp.Body.Bytes())
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
		assert.Equal(t, "Invalid credentials", env.Message)
	}
}

func TestAuth_RefreshAndLogout(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	first := ts.register(t, "Ada", "ada@example.com")

	resp := ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	second := decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.SessionID, second.SessionID)

	// The rotated token is single use.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/logout", bearer(second.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Revoked sessions no longer authenticate.
	resp = ts.api.Get("/api/v1/users/me", bearer(second.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope[any](t, resp.Body.Bytes()).Code)
}

func TestAuth_LogoutRequiresToken(t *testing.T) {
	ts := setupTestServer(t, testOptions{})

	resp := ts.api.Post("/api/v1/auth/logout")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUsers_Me(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	tokens := ts.register(t, "Ada", "ada@example.com")
	ts.ask(t, tokens.AccessToken, "How to deploy", "api")

	resp := ts.api.Get("/api/v1/users/me", bearer(tokens.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	me := decodeEnvelope[CurrentUserResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, tokens.User.ID, me.ID)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.Equal(t, 1, me.Counts["question_asked"])

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
