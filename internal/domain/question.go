package domain

import "time"

// Question is a post in the feed. Tags hold normalized slugs in the order the
// author chose them.
type Question struct {
	Base
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	AuthorID    string   `json:"author_id"`
	AuthorName  string   `json:"author_name"`
	Votes       int      `json:"votes"`
	AnswerCount int      `json:"answer_count"`
}

// Author returns the display label for the question's author.
func (q *Question) Author() string {
	if q.AuthorName == "" {
		return AnonymousName
	}
	return q.AuthorName
}

// IsAnswered reports whether at least one answer exists.
func (q *Question) IsAnswered() bool {
	return q.AnswerCount > 0
}

// FeedID implements feed.Item.
func (q *Question) FeedID() string { return q.ID }

// FeedText implements feed.Item; questions are searched by title.
func (q *Question) FeedText() string { return q.Title }

// FeedCreatedAt implements feed.Item.
func (q *Question) FeedCreatedAt() time.Time { return q.CreatedAt }

// FeedVotes implements feed.Item.
func (q *Question) FeedVotes() int { return q.Votes }

// FeedAnswerCount implements feed.Item.
func (q *Question) FeedAnswerCount() int { return q.AnswerCount }
