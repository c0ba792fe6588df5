package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newTestEntity(s *Store) *Entity[testEntity] {
	return NewEntity[testEntity](s, "test:").
		WithIndexTransform("email",
			func(e *testEntity) []string { return []string{strings.ToLower(e.Email)} },
			strings.ToLower,
		)
}

func TestEntity_CreateAndGet(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	in := &testEntity{ID: "1", Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, entity.Create(ctx, "1", in))

	got, err := entity.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = entity.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_CreateConflicts(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))

	err := entity.Create(ctx, "1", &testEntity{ID: "1", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = entity.Create(ctx, "2", &testEntity{ID: "2", Email: "A@EXAMPLE.COM"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEntity_GetByIndex(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "ada@example.com"}))

	got, err := entity.GetByIndex(ctx, "email", "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = entity.GetByIndex(ctx, "email", "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_UpdateMovesIndex(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "old@example.com"}))
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "taken@example.com"}))

	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Name: "New", Email: "new@example.com"}))

	_, err := entity.GetByIndex(ctx, "email", "old@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := entity.GetByIndex(ctx, "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	// Keeping the same index value is not a conflict.
	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Name: "Again", Email: "new@example.com"}))

	err = entity.Update(ctx, "1", &testEntity{ID: "1", Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = entity.Update(ctx, "missing", &testEntity{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_ListSkipsIndexKeys(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, entity.Create(ctx, id, &testEntity{ID: id, Email: id + "@example.com"}))
	}

	var ids []string
	for e, err := range entity.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestEntity_CanceledContext(t *testing.T) {
	s, _ := setupTestStore(t)
	entity := newTestEntity(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, entity.Create(ctx, "1", &testEntity{ID: "1"}), context.Canceled)
	_, err := entity.Get(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}
