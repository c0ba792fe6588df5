// Package session carries the authenticated user of a request through its context.
package session

import (
	"context"

	"github.com/askboard/askboard-server/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userKey      ctxKey = "user"
	sessionIDKey ctxKey = "session_id"
)

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User returns the user stored in ctx, if any.
func User(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok && user != nil
}

// UserID returns the ID of the user stored in ctx, or "" when anonymous.
func UserID(ctx context.Context) string {
	if user, ok := User(ctx); ok {
		return user.ID
	}
	return ""
}

// WithSessionID records the session the access token was issued for.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID returns the session ID stored in ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
