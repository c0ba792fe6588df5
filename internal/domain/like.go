package domain

import (
	"fmt"
	"time"
)

// VoteTarget is the kind of entity a vote applies to.
type VoteTarget string

const (
	TargetAnswer   VoteTarget = "answer"
	TargetQuestion VoteTarget = "question"
)

// Valid reports whether t is a known target kind.
func (t VoteTarget) Valid() bool {
	return t == TargetAnswer || t == TargetQuestion
}

// Like records that a user has voted on a target. A Like is written once, on
// the user's first vote, and never changes afterwards.
type Like struct {
	Target   VoteTarget `json:"target"`
	TargetID string     `json:"target_id"`
	UserID   string     `json:"user_id"`
	LikedAt  time.Time  `json:"liked_at"`
}

// VoteState is the state of one (target, user) pair.
type VoteState string

const (
	VoteStateUnvoted VoteState = "unvoted"
	VoteStateVoted   VoteState = "voted"
)

// VoteResult describes the outcome of a vote attempt.
type VoteResult struct {
	Target   VoteTarget `json:"target"`
	TargetID string     `json:"target_id"`
	// Voted is true only when this call created the marker.
	Voted bool      `json:"voted"`
	State VoteState `json:"state"`
	Votes int       `json:"votes"`
}

func (l *Like) String() string {
	return fmt.Sprintf("%s:%s by %s", l.Target, l.TargetID, l.UserID)
}
