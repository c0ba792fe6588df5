package domain

import "time"

// Answer is a reply to a question. AuthorID is empty for anonymous answers.
type Answer struct {
	Base
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
	Votes      int    `json:"votes"`
}

// Author returns the display label for the answer's author.
func (a *Answer) Author() string {
	if a.AuthorName == "" {
		return AnonymousName
	}
	return a.AuthorName
}

// IsAnonymous reports whether the answer was posted without a session.
func (a *Answer) IsAnonymous() bool {
	return a.AuthorID == ""
}

// FeedID implements feed.Item.
func (a *Answer) FeedID() string { return a.ID }

// FeedText implements feed.Item; answers are searched by body.
func (a *Answer) FeedText() string { return a.Text }

// FeedCreatedAt implements feed.Item.
func (a *Answer) FeedCreatedAt() time.Time { return a.CreatedAt }

// FeedVotes implements feed.Item.
func (a *Answer) FeedVotes() int { return a.Votes }

// FeedAnswerCount implements feed.Item. Answers have no replies of their own.
func (a *Answer) FeedAnswerCount() int { return 0 }
