package store

import (
	"strings"

	"github.com/askboard/askboard-server/internal/domain"
)

// Key layout:
//
//	question:{id}                          → Question JSON
//	answer:{id}                            → Answer JSON
//	idx:answers:question:{qid}:{aid}       → empty
//	like:{kind}:{targetID}:{userID}        → Like JSON
//	tag:{slug}                             → Tag JSON
//	user:{id}, user:idx:email:{email}      → User JSON, user ID
//	session:{id}                           → Session JSON
//	idx:sessions:user:{uid}:{sid}          → empty
//	idx:sessions:token:{hash}              → session ID
const (
	questionPrefix         = "question:"
	answerPrefix           = "answer:"
	answersByQuestionIndex = "idx:answers:question:"
	likePrefix             = "like:"
	tagPrefix              = "tag:"
	userPrefix             = "user:"
	sessionPrefix          = "session:"
	sessionByUserPrefix    = "idx:sessions:user:"
	sessionByTokenPrefix   = "idx:sessions:token:"
)

func questionKey(id string) []byte { return []byte(questionPrefix + id) }

func answerKey(id string) []byte { return []byte(answerPrefix + id) }

func answerIndexKey(questionID, answerID string) []byte {
	return []byte(answersByQuestionIndex + questionID + ":" + answerID)
}

func answerIndexPrefix(questionID string) []byte {
	return []byte(answersByQuestionIndex + questionID + ":")
}

// likeTargetPrefix covers every marker on one target.
func likeTargetPrefix(target domain.VoteTarget, targetID string) []byte {
	return []byte(likePrefix + string(target) + ":" + targetID + ":")
}

func likeKey(target domain.VoteTarget, targetID, userID string) []byte {
	return append(likeTargetPrefix(target, targetID), userID...)
}

func tagKey(slug string) []byte { return []byte(tagPrefix + slug) }

// lastSegment returns the part of key after its final colon. IDs never
// contain colons.
func lastSegment(key []byte) string {
	s := string(key)
	return s[strings.LastIndexByte(s, ':')+1:]
}
