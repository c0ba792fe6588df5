package feed

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FetchFunc loads a full collection from storage.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// FetchError reports that a collection could not be loaded. The previous
// snapshot, if any, is left untouched.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch ran out of time.
func (e *FetchError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Snapshot caches the latest fetched collection.
//
// Each fetch takes a generation number when it starts. A completed fetch is
// stored only if no fetch with a later generation has been stored already, so
// a slow early fetch can never overwrite a newer result. Fetches run outside
// the lock.
//
// The returned slices are shared between callers and must not be modified.
type Snapshot[T any] struct {
	fetch   FetchFunc[T]
	timeout time.Duration

	mu          sync.Mutex
	items       []T
	started     uint64 // generations handed out
	stored      uint64 // generation of items; 0 means never loaded
	invalidated uint64 // fetches at or below this generation may be stale
	fetchedAt   time.Time
}

// NewSnapshot creates an empty snapshot. A positive timeout bounds each fetch.
func NewSnapshot[T any](fetch FetchFunc[T], timeout time.Duration) *Snapshot[T] {
	return &Snapshot[T]{fetch: fetch, timeout: timeout}
}

// Get returns the cached collection, fetching first if nothing fresh is held.
func (s *Snapshot[T]) Get(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	if s.stored > 0 && s.stored > s.invalidated {
		items := s.items
		s.mu.Unlock()
		return items, nil
	}
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh fetches unconditionally and returns the newest stored collection,
// which is this fetch's result unless a later fetch already finished.
//
// If ctx is canceled while fetching, the result is discarded.
func (s *Snapshot[T]) Refresh(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	items, err := s.fetch(fetchCtx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen > s.stored {
		s.items = items
		s.stored = gen
		s.fetchedAt = time.Now()
	}
	return s.items, nil
}

// Invalidate marks the held collection and any in-flight fetch as stale.
// The next Get fetches again.
func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	s.invalidated = s.started
	s.mu.Unlock()
}

// FetchedAt returns when the held collection was stored, zero if never.
func (s *Snapshot[T]) FetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}
