// Package store persists forum data in BadgerDB.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/sse"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer keeps the full-text index in sync with stored questions.
// Index updates run asynchronously and never fail a store operation.
type SearchIndexer interface {
	IndexQuestion(ctx context.Context, q *domain.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexQuestion is a no-op.
func (NoopSearchIndexer) IndexQuestion(context.Context, *domain.Question) error { return nil }

// DeleteQuestion is a no-op.
func (NoopSearchIndexer) DeleteQuestion(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// ChangeFunc is called synchronously after a write commits.
type ChangeFunc func(event sse.Event)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	eventEmitter EventEmitter

	// Set via SetSearchIndexer after store creation; the index is built
	// from the store, so it cannot exist first.
	searchIndexer SearchIndexer

	listenersMu sync.RWMutex
	listeners   []ChangeFunc

	Users *Entity[domain.User]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Survive crashes without corruption
	opts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if emitter == nil {
		emitter = NewNoopEmitter()
	}

	store := &Store{
		db:            db,
		logger:        logger,
		eventEmitter:  emitter,
		searchIndexer: NewNoopSearchIndexer(),
	}
	store.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NewNoopSearchIndexer()
	}
	s.searchIndexer = indexer
}

// OnChange registers fn to run after every committed forum write.
func (s *Store) OnChange(fn ChangeFunc) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// publish notifies change listeners and then SSE clients.
func (s *Store) publish(event sse.Event) {
	s.listenersMu.RLock()
	listeners := s.listeners
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
	s.eventEmitter.Emit(event)
}

func (s *Store) indexQuestionAsync(q *domain.Question) {
	go func() {
		if err := s.searchIndexer.IndexQuestion(context.Background(), q); err != nil && s.logger != nil {
			s.logger.Warn("failed to index question for search", "question_id", q.ID, "error", err)
		}
	}()
}

// reindexQuestion refreshes a question's search document after its derived
// counts change.
func (s *Store) reindexQuestion(ctx context.Context, id string) {
	q, err := s.GetQuestion(context.WithoutCancel(ctx), id)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to load question for reindex", "question_id", id, "error", err)
		}
		return
	}
	s.indexQuestionAsync(q)
}

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, dest)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getJSON decodes the value at key. A missing key returns badger.ErrKeyNotFound.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON encodes value and stores it at key.
func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// Retry budget for read-modify-write transactions that lose an optimistic
// conflict. Waits grow exponentially from txnBackoffBase up to txnBackoffMax,
// each with full jitter.
const (
	maxTxnAttempts = 25
	txnBackoffBase = time.Millisecond
	txnBackoffMax  = 50 * time.Millisecond
)

// update runs fn in a read-write transaction, retrying on badger.ErrConflict.
// fn must be safe to run more than once. Exhausting the budget returns
// ErrBusy.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if s.logger != nil {
			s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txnBackoff(attempt)):
		}
	}
	return ErrBusy.WithCause(fmt.Errorf("transaction failed after %d attempts: %w", maxTxnAttempts, err))
}

// txnBackoff returns a jittered wait before retry number attempt.
func txnBackoff(attempt int) time.Duration {
	ceiling := txnBackoffMax
	if attempt < 16 {
		ceiling = min(txnBackoffBase<<attempt, txnBackoffMax)
	}
	return rand.N(ceiling) + 1
}

// initUsers initializes the Users entity with a case-insensitive email index.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail,
		)
}
