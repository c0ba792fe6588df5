package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/session"
)

func newUser(id, email string) *domain.User {
	u := &domain.User{
		Base:         domain.Base{ID: id},
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "User " + id,
	}
	u.InitTimestamps()
	return u
}

func TestCreateUser(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u-1", "ada@example.com")))

	got, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u-1", "ada@example.com")))

	err := s.CreateUser(ctx, newUser("u-2", "  ADA@example.com "))
	assert.ErrorIs(t, err, ErrEmailExists)

	err = s.CreateUser(ctx, newUser("u-1", "other@example.com"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetUser_NotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.GetUser(context.Background(), "u-missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u-1", "Ada@Example.com")))

	got, err := s.GetUserByEmail(ctx, "ada@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u-1", "ada@example.com")))
	require.NoError(t, s.CreateUser(ctx, newUser("u-2", "bob@example.com")))

	u, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	before := u.UpdatedAt

	u.Email = "ada@new.example.com"
	require.NoError(t, s.UpdateUser(ctx, u))
	assert.False(t, u.UpdatedAt.Before(before))

	got, err := s.GetUserByEmail(ctx, "ada@new.example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	u.Email = "bob@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, u), ErrEmailExists)

	assert.ErrorIs(t, s.UpdateUser(ctx, newUser("u-missing", "x@example.com")), ErrUserNotFound)
}

func TestCurrentUser(t *testing.T) {
	s, _ := setupTestStore(t)

	_, ok := s.CurrentUser(context.Background())
	assert.False(t, ok)

	u := newUser("u-1", "ada@example.com")
	got, ok := s.CurrentUser(session.WithUser(context.Background(), u))
	assert.True(t, ok)
	assert.Equal(t, "u-1", got.ID)
}
