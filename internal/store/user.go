package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/session"
)

// CreateUser creates a new user account. Emails are unique ignoring case.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.Users.Create(ctx, user.ID, user)
	if errors.Is(err, ErrAlreadyExists) {
		exists, checkErr := s.exists([]byte(userPrefix + user.ID))
		if checkErr == nil && !exists {
			return ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, "email", email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateUser saves changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Touch()
	err := s.Users.Update(ctx, user.ID, user)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return ErrEmailExists
	case errors.Is(err, ErrNotFound):
		return ErrUserNotFound
	}
	return err
}

// CurrentUser returns the signed-in user of the request, if any.
func (s *Store) CurrentUser(ctx context.Context) (*domain.User, bool) {
	return session.User(ctx)
}

// normalizeEmail lowercases and trims an email address for lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
