package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
)

// BatchWriter bulk-loads records with BadgerDB's WriteBatch. Writes skip
// conflict checks, change listeners and the search index, so it is only
// for seeding and imports while nothing else writes.
type BatchWriter struct {
	store     *Store
	batch     *badger.WriteBatch
	maxSize   int
	count     int
	autoFlush bool
}

// NewBatchWriter creates a batch writer that flushes every maxSize records.
func (s *Store) NewBatchWriter(maxSize int) *BatchWriter {
	return &BatchWriter{
		store:     s,
		batch:     s.db.NewWriteBatch(),
		maxSize:   maxSize,
		autoFlush: maxSize > 0,
	}
}

// PutQuestion adds a question. Its stored counters are kept as given until
// ReconcileVotes; reads derive live counts regardless.
func (b *BatchWriter) PutQuestion(ctx context.Context, q *domain.Question) error {
	return b.put(ctx, questionKey(q.ID), q)
}

// PutAnswer adds an answer and its question index entry. The question's
// AnswerCount is not touched.
func (b *BatchWriter) PutAnswer(ctx context.Context, a *domain.Answer) error {
	if err := b.batch.Set(answerIndexKey(a.QuestionID, a.ID), []byte{}); err != nil {
		return fmt.Errorf("batch set answer index: %w", err)
	}
	return b.put(ctx, answerKey(a.ID), a)
}

// PutLike adds a vote marker. The target's stored counter is not touched;
// ReconcileVotes brings it in step.
func (b *BatchWriter) PutLike(ctx context.Context, l *domain.Like) error {
	return b.put(ctx, likeKey(l.Target, l.TargetID, l.UserID), l)
}

// PutTag adds or overwrites a tag.
func (b *BatchWriter) PutTag(ctx context.Context, t *domain.Tag) error {
	return b.put(ctx, tagKey(t.Slug), t)
}

func (b *BatchWriter) put(ctx context.Context, key []byte, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := b.batch.Set(key, data); err != nil {
		return fmt.Errorf("batch set %s: %w", key, err)
	}

	b.count++
	if b.autoFlush && b.count >= b.maxSize {
		if err := b.Flush(); err != nil {
			return fmt.Errorf("auto flush: %w", err)
		}
	}
	return nil
}

// Flush commits all pending writes in the batch.
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil
	}

	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelInfo, "batch flushed",
			slog.Int("count", b.count),
		)
	}

	b.count = 0
	b.batch = b.store.db.NewWriteBatch()
	return nil
}

// Cancel discards all pending writes in the batch.
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
	b.count = 0
}

// Count returns the number of records in the current batch.
func (b *BatchWriter) Count() int {
	return b.count
}
