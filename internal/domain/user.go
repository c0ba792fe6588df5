package domain

import (
	"strings"
	"time"
)

// User is a registered account.
type User struct {
	Base
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // never sent to clients
	DisplayName  string    `json:"display_name"`
	AvatarColor  string    `json:"avatar_color"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Name returns the best available label: the display name, then the local
// part of the email address.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return AnonymousName
}

// Session is a refresh-token session. Each login creates one.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

// IsExpired reports whether the session can no longer be refreshed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}
