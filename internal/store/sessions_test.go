package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/domain"
)

func newSession(id, userID, tokenHash string, ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        now.Add(ttl),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        "127.0.0.1",
		UserAgent:        "test",
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("sess-1", "u-1", "hash-1", time.Hour)))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	byToken, err := s.GetSessionByRefreshToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byToken.ID)

	err = s.CreateSession(ctx, newSession("sess-1", "u-1", "hash-x", time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetSession_Errors(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetSession(ctx, "sess-missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.GetSessionByRefreshToken(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.CreateSession(ctx, newSession("sess-old", "u-1", "hash-old", -time.Minute)))
	_, err = s.GetSession(ctx, "sess-old")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestUpdateSession_RotatesToken(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	sess := newSession("sess-1", "u-1", "hash-1", time.Hour)
	require.NoError(t, s.CreateSession(ctx, sess))

	sess.RefreshTokenHash = "hash-2"
	require.NoError(t, s.UpdateSession(ctx, sess))

	_, err := s.GetSessionByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := s.GetSessionByRefreshToken(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)

	assert.ErrorIs(t, s.UpdateSession(ctx, newSession("sess-x", "u-1", "h", time.Hour)), ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("sess-1", "u-1", "hash-1", time.Hour)))
	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	require.NoError(t, s.DeleteSession(ctx, "sess-1")) // idempotent

	_, err := s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.GetSessionByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sessions, err := s.ListUserSessions(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestListUserSessions_SkipsExpired(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("sess-1", "u-1", "h1", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, newSession("sess-2", "u-1", "h2", -time.Hour)))
	require.NoError(t, s.CreateSession(ctx, newSession("sess-3", "u-2", "h3", time.Hour)))

	sessions, err := s.ListUserSessions(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("sess-live", "u-1", "h1", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, newSession("sess-dead", "u-1", "h2", -time.Hour)))

	n, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetSession(ctx, "sess-live")
	assert.NoError(t, err)
	_, err = s.GetSessionByRefreshToken(ctx, "h2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
