package domain

import "time"

// DefaultTags are offered to authors before anyone has created a tag.
var DefaultTags = []string{"React", "Next.js", "Firebase", "Tailwind", "Auth", "API"}

// Tag is a community label for questions. Slug is its identity; Name keeps the
// spelling of the first use for display.
type Tag struct {
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Touch updates UpdatedAt to now.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}
