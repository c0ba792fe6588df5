package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/sse"
)

// SubmitAnswer stores an answer and its question index entry. The question
// must exist. The question record itself is only read, so answers to the
// same question commit independently; its AnswerCount is derived from the
// index on read.
func (s *Store) SubmitAnswer(ctx context.Context, a *domain.Answer) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(questionKey(a.QuestionID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrQuestionNotFound
			}
			return err
		}

		key := answerKey(a.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists.WithMessage("answer already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check answer exists: %w", err)
		}

		if err := setJSON(txn, key, a); err != nil {
			return err
		}
		return txn.Set(answerIndexKey(a.QuestionID, a.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}

	s.publish(sse.NewAnswerCreatedEvent(a))
	s.reindexQuestion(ctx, a.QuestionID)
	return nil
}

// GetAnswer retrieves an answer by ID.
func (s *Store) GetAnswer(ctx context.Context, id string) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a domain.Answer
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, answerKey(id), &a); err != nil {
			return err
		}
		deriveAnswerCounts(txn, &a)
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("get answer: %w", err)
	}
	return &a, nil
}

// FetchAnswers returns every answer of a question. The question must exist.
func (s *Store) FetchAnswers(ctx context.Context, questionID string) ([]*domain.Answer, error) {
	var answers []*domain.Answer

	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(questionKey(questionID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrQuestionNotFound
			}
			return err
		}

		prefix := answerIndexPrefix(questionID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			answerID := lastSegment(it.Item().Key())
			var a domain.Answer
			if err := getJSON(txn, answerKey(answerID), &a); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return fmt.Errorf("get answer %s: %w", answerID, err)
			}
			deriveAnswerCounts(txn, &a)
			answers = append(answers, &a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch answers: %w", err)
	}
	return answers, nil
}
