package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askboard/askboard-server/internal/domain"
)

func TestUser(t *testing.T) {
	ctx := context.Background()

	_, ok := User(ctx)
	assert.False(t, ok)
	assert.Empty(t, UserID(ctx))

	u := &domain.User{Base: domain.Base{ID: "u-1"}}
	ctx = WithUser(ctx, u)

	got, ok := User(ctx)
	assert.True(t, ok)
	assert.Same(t, u, got)
	assert.Equal(t, "u-1", UserID(ctx))
}

func TestUser_NilIsAnonymous(t *testing.T) {
	ctx := WithUser(context.Background(), nil)
	_, ok := User(ctx)
	assert.False(t, ok)
}

func TestSessionID(t *testing.T) {
	assert.Empty(t, SessionID(context.Background()))
	assert.Equal(t, "sess-1", SessionID(WithSessionID(context.Background(), "sess-1")))
}
