package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/sse"
)

// CastVote records userID's vote on a target at most once.
//
// A vote writes only its own marker key, so votes by different users never
// touch the same key and commit independently. Two concurrent first votes by
// the same user both write that marker, so badger rejects one commit with
// ErrConflict; the retry sees the marker and becomes a no-op. Totals are
// counted from markers after the commit.
//
// An empty userID is a no-op: nothing is written and Voted is false.
func (s *Store) CastVote(ctx context.Context, target domain.VoteTarget, targetID, userID string) (domain.VoteResult, error) {
	result := domain.VoteResult{
		Target:   target,
		TargetID: targetID,
		State:    domain.VoteStateUnvoted,
	}
	if !target.Valid() {
		return result, ErrInvalidInput.WithMessage(fmt.Sprintf("unknown vote target %q", target))
	}

	if userID == "" {
		votes, _, err := s.readVotes(ctx, target, targetID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return result, err
		}
		result.Votes = votes
		return result, nil
	}

	var questionID string
	err := s.update(ctx, func(txn *badger.Txn) error {
		// Reset: this closure may run again after a conflict.
		result.Voted = false

		rec, err := loadVotable(txn, target, targetID)
		if err != nil {
			return err
		}
		questionID = rec.questionID

		marker := likeKey(target, targetID, userID)
		if _, err := txn.Get(marker); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check vote marker: %w", err)
		}

		like := domain.Like{
			Target:   target,
			TargetID: targetID,
			UserID:   userID,
			LikedAt:  time.Now(),
		}
		if err := setJSON(txn, marker, &like); err != nil {
			return err
		}
		result.Voted = true
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("cast vote: %w", err)
	}

	votes, err := s.CountVotes(ctx, target, targetID)
	if err != nil {
		return result, fmt.Errorf("count votes: %w", err)
	}
	result.Votes = votes
	result.State = domain.VoteStateVoted

	if result.Voted {
		s.publish(sse.NewVotedEvent(target, targetID, questionID, result.Votes))
		if target == domain.TargetQuestion {
			s.reindexQuestion(ctx, targetID)
		}
	}
	return result, nil
}

// Vote upvotes an answer. See CastVote.
func (s *Store) Vote(ctx context.Context, answerID, userID string) (domain.VoteResult, error) {
	return s.CastVote(ctx, domain.TargetAnswer, answerID, userID)
}

// HasVoted reports whether userID has a marker on the target.
func (s *Store) HasVoted(ctx context.Context, target domain.VoteTarget, targetID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(likeKey(target, targetID, userID))
}

// CountVotes derives a target's total from its markers.
func (s *Store) CountVotes(ctx context.Context, target domain.VoteTarget, targetID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, likeTargetPrefix(target, targetID))
		return nil
	})
	return n, err
}

// ReconcileVotes rewrites every stored counter that disagrees with the
// counts derived from markers and the answer index, and returns how many
// records were fixed. Reads already derive counts, so this only keeps the
// stored JSON in step, for example after a BatchWriter import.
func (s *Store) ReconcileVotes(ctx context.Context) (int, error) {
	type drift struct {
		target domain.VoteTarget
		id     string
	}
	var drifts []drift

	err := s.db.View(func(txn *badger.Txn) error {
		for _, target := range []domain.VoteTarget{domain.TargetQuestion, domain.TargetAnswer} {
			prefix := []byte(questionPrefix)
			if target == domain.TargetAnswer {
				prefix = []byte(answerPrefix)
			}

			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			var ids []string
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				ids = append(ids, string(it.Item().Key()[len(prefix):]))
			}
			it.Close()

			for _, id := range ids {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := loadVotable(txn, target, id)
				if err != nil {
					return err
				}
				if rec.stale(txn) {
					drifts = append(drifts, drift{target: target, id: id})
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan vote counters: %w", err)
	}

	for _, d := range drifts {
		var votes int
		err := s.update(ctx, func(txn *badger.Txn) error {
			rec, err := loadVotable(txn, d.target, d.id)
			if err != nil {
				return err
			}
			rec.derive(txn)
			votes = *rec.votes
			return setJSON(txn, rec.key, rec.value)
		})
		if err != nil {
			return 0, fmt.Errorf("reconcile %s %s: %w", d.target, d.id, err)
		}
		if s.logger != nil {
			s.logger.Warn("vote counter corrected", "target", d.target, "target_id", d.id, "votes", votes)
		}
	}
	return len(drifts), nil
}

// votable is a loaded vote target with pointers to its stored counters.
// answers is nil for answers.
type votable struct {
	id         string
	key        []byte
	value      any
	votes      *int
	answers    *int
	questionID string
}

// derive overwrites the stored counters with derived counts.
func (v *votable) derive(txn *badger.Txn) {
	*v.votes = countPrefix(txn, likeTargetPrefix(v.target(), v.id))
	if v.answers != nil {
		*v.answers = countPrefix(txn, answerIndexPrefix(v.questionID))
	}
}

// stale reports whether a stored counter differs from its derived count.
func (v *votable) stale(txn *badger.Txn) bool {
	if *v.votes != countPrefix(txn, likeTargetPrefix(v.target(), v.id)) {
		return true
	}
	return v.answers != nil && *v.answers != countPrefix(txn, answerIndexPrefix(v.questionID))
}

func (v *votable) target() domain.VoteTarget {
	if v.answers == nil {
		return domain.TargetAnswer
	}
	return domain.TargetQuestion
}

func loadVotable(txn *badger.Txn, target domain.VoteTarget, id string) (*votable, error) {
	switch target {
	case domain.TargetAnswer:
		var a domain.Answer
		if err := getJSON(txn, answerKey(id), &a); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil, ErrAnswerNotFound
			}
			return nil, err
		}
		return &votable{id: id, key: answerKey(id), value: &a, votes: &a.Votes, questionID: a.QuestionID}, nil
	case domain.TargetQuestion:
		var q domain.Question
		if err := getJSON(txn, questionKey(id), &q); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil, ErrQuestionNotFound
			}
			return nil, err
		}
		return &votable{id: id, key: questionKey(id), value: &q, votes: &q.Votes, answers: &q.AnswerCount, questionID: q.ID}, nil
	default:
		return nil, ErrInvalidInput.WithMessage(fmt.Sprintf("unknown vote target %q", target))
	}
}

// readVotes returns a target's derived vote count and question.
func (s *Store) readVotes(ctx context.Context, target domain.VoteTarget, id string) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	var (
		votes      int
		questionID string
	)
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := loadVotable(txn, target, id)
		if err != nil {
			return err
		}
		rec.derive(txn)
		votes, questionID = *rec.votes, rec.questionID
		return nil
	})
	return votes, questionID, err
}

// deriveQuestionCounts replaces q's stored counters with counts taken from
// its vote markers and answer index.
func deriveQuestionCounts(txn *badger.Txn, q *domain.Question) {
	q.Votes = countPrefix(txn, likeTargetPrefix(domain.TargetQuestion, q.ID))
	q.AnswerCount = countPrefix(txn, answerIndexPrefix(q.ID))
}

// deriveAnswerCounts replaces a's stored vote counter with its marker count.
func deriveAnswerCounts(txn *badger.Txn, a *domain.Answer) {
	a.Votes = countPrefix(txn, likeTargetPrefix(domain.TargetAnswer, a.ID))
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}
