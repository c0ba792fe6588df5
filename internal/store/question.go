package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/sse"
)

// CreateQuestion stores a new question and counts it against each of its
// tags in the same transaction. tagNames maps each slug in q.Tags to the
// display spelling used when the tag is first created.
func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question, tagNames map[string]string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		key := questionKey(q.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists.WithMessage("question already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check question exists: %w", err)
		}

		if err := setJSON(txn, key, q); err != nil {
			return err
		}
		return upsertTagsInTxn(txn, q.Tags, tagNames, q.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}

	s.publish(sse.NewQuestionCreatedEvent(q))
	s.indexQuestionAsync(q)
	return nil
}

// GetQuestion retrieves a question by ID with derived vote and answer counts.
func (s *Store) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var q domain.Question
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, questionKey(id), &q); err != nil {
			return err
		}
		deriveQuestionCounts(txn, &q)
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

// FetchQuestions returns every stored question in key order.
func (s *Store) FetchQuestions(ctx context.Context) ([]*domain.Question, error) {
	prefix := []byte(questionPrefix)
	var questions []*domain.Question

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var q domain.Question
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &q)
			}); err != nil {
				return fmt.Errorf("decode question %s: %w", it.Item().Key(), err)
			}
			deriveQuestionCounts(txn, &q)
			questions = append(questions, &q)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return questions, nil
}
