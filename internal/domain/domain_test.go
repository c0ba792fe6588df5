package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuestion_AuthorFallback(t *testing.T) {
	q := &Question{}
	assert.Equal(t, "Anonymous", q.Author())

	q.AuthorName = "Ada"
	assert.Equal(t, "Ada", q.Author())
}

func TestAnswer_Anonymous(t *testing.T) {
	a := &Answer{Text: "use useEffect"}
	assert.True(t, a.IsAnonymous())
	assert.Equal(t, AnonymousName, a.Author())
	assert.Zero(t, a.FeedAnswerCount())
	assert.Equal(t, "use useEffect", a.FeedText())
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Grace", (&User{DisplayName: "Grace", Email: "g@x.io"}).Name())
	assert.Equal(t, "grace", (&User{Email: "grace@x.io"}).Name())
	assert.Equal(t, AnonymousName, (&User{}).Name())
}

func TestSession_IsExpired(t *testing.T) {
	s := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, s.IsExpired())

	s.ExpiresAt = time.Now().Add(time.Hour)
	assert.False(t, s.IsExpired())
}

func TestVoteTarget_Valid(t *testing.T) {
	assert.True(t, TargetAnswer.Valid())
	assert.True(t, TargetQuestion.Valid())
	assert.False(t, VoteTarget("comment").Valid())
}

func TestBase_Timestamps(t *testing.T) {
	var b Base
	b.InitTimestamps()
	assert.False(t, b.CreatedAt.IsZero())
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	time.Sleep(time.Millisecond)
	b.Touch()
	assert.True(t, b.UpdatedAt.After(b.CreatedAt))
}
