package domain

import "time"

// AnonymousName labels content whose author is unknown or has no name.
const AnonymousName = "Anonymous"

// Base holds the identity and timestamps shared by stored entities.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (b *Base) InitTimestamps() {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Touch updates UpdatedAt to now.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now()
}
