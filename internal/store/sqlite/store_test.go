package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='activities'").Scan(&name)
	require.NoError(t, err)
	assert.NoError(t, s.Ping())
}

func TestOpenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Re-open should work (schema is idempotent).
	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer s2.Close()
}
