package domain

import "time"

// ActivityType is the kind of forum activity.
type ActivityType string

const (
	ActivityQuestionAsked ActivityType = "question_asked"
	ActivityAnswerPosted  ActivityType = "answer_posted"
	ActivityAnswerVoted   ActivityType = "answer_voted"
	ActivityQuestionVoted ActivityType = "question_voted"
)

// Activity is an immutable record of something a user did. User and question
// fields are denormalized so a feed renders without lookups.
type Activity struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Type            ActivityType `json:"type"`
	CreatedAt       time.Time    `json:"created_at"`
	UserDisplayName string       `json:"user_display_name"`
	QuestionID      string       `json:"question_id"`
	QuestionTitle   string       `json:"question_title"`
	AnswerID        string       `json:"answer_id,omitempty"`
}
