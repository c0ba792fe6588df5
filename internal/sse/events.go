// Package sse implements Server-Sent Events for live question, answer and vote updates.
package sse

import (
	"time"

	"github.com/askboard/askboard-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventQuestionCreated is sent when a question is asked.
	EventQuestionCreated EventType = "question.created"
	// EventAnswerCreated is sent when an answer is posted.
	EventAnswerCreated EventType = "answer.created"
	// EventAnswerVoted is sent when an answer gains a vote.
	EventAnswerVoted EventType = "answer.voted"
	// EventQuestionVoted is sent when a question gains a vote.
	EventQuestionVoted EventType = "question.voted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// QuestionID scopes the event to one question thread. Clients that
	// subscribed with a question filter only receive matching events.
	// Empty means "broadcast to all".
	QuestionID string `json:"-"`
}

// QuestionEventData is the data payload for question events.
type QuestionEventData struct {
	Question *domain.Question `json:"question"`
}

// AnswerEventData is the data payload for answer events.
type AnswerEventData struct {
	Answer *domain.Answer `json:"answer"`
}

// VoteEventData is the data payload for vote events.
type VoteEventData struct {
	Target     domain.VoteTarget `json:"target"`
	TargetID   string            `json:"target_id"`
	QuestionID string            `json:"question_id"`
	Votes      int               `json:"votes"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewQuestionCreatedEvent creates a question.created event.
func NewQuestionCreatedEvent(q *domain.Question) Event {
	return Event{
		Type:       EventQuestionCreated,
		Data:       QuestionEventData{Question: q},
		Timestamp:  time.Now(),
		QuestionID: q.ID,
	}
}

// NewAnswerCreatedEvent creates an answer.created event.
func NewAnswerCreatedEvent(a *domain.Answer) Event {
	return Event{
		Type:       EventAnswerCreated,
		Data:       AnswerEventData{Answer: a},
		Timestamp:  time.Now(),
		QuestionID: a.QuestionID,
	}
}

// NewVotedEvent creates an answer.voted or question.voted event depending on target.
func NewVotedEvent(target domain.VoteTarget, targetID, questionID string, votes int) Event {
	typ := EventAnswerVoted
	if target == domain.TargetQuestion {
		typ = EventQuestionVoted
	}
	return Event{
		Type: typ,
		Data: VoteEventData{
			Target:     target,
			TargetID:   targetID,
			QuestionID: questionID,
			Votes:      votes,
		},
		Timestamp:  time.Now(),
		QuestionID: questionID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
