package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
)

// CreateSession creates a new refresh-token session.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	key := []byte(sessionPrefix + sess.ID)

	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists.WithMessage("session already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check session exists: %w", err)
		}

		if err := setJSON(txn, key, sess); err != nil {
			return err
		}
		if err := txn.Set([]byte(sessionByTokenPrefix+sess.RefreshTokenHash), []byte(sess.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(sessionByUserPrefix+sess.UserID+":"+sess.ID), []byte{})
	})
}

// GetSession retrieves a live session by ID.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	if err := s.get([]byte(sessionPrefix+id), &sess); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		sessionID = string(val)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}

	return s.GetSession(ctx, sessionID)
}

// UpdateSession saves a session, moving the token index on rotation.
func (s *Store) UpdateSession(ctx context.Context, sess *domain.Session) error {
	key := []byte(sessionPrefix + sess.ID)

	return s.update(ctx, func(txn *badger.Txn) error {
		var old domain.Session
		if err := getJSON(txn, key, &old); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if err := setJSON(txn, key, sess); err != nil {
			return err
		}

		if old.RefreshTokenHash != sess.RefreshTokenHash {
			if err := txn.Delete([]byte(sessionByTokenPrefix + old.RefreshTokenHash)); err != nil {
				return err
			}
			if err := txn.Set([]byte(sessionByTokenPrefix+sess.RefreshTokenHash), []byte(sess.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSession deletes a session (logout). Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	key := []byte(sessionPrefix + sessionID)

	return s.update(ctx, func(txn *badger.Txn) error {
		var sess domain.Session
		if err := getJSON(txn, key, &sess); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("get session for deletion: %w", err)
		}

		for _, k := range [][]byte{
			key,
			[]byte(sessionByTokenPrefix + sess.RefreshTokenHash),
			[]byte(sessionByUserPrefix + sess.UserID + ":" + sessionID),
		} {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUserSessions returns all live sessions for a user.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	prefix := []byte(sessionByUserPrefix + userID + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, lastSegment(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	prefix := []byte(sessionPrefix)
	var expiredIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sess domain.Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			}); err != nil {
				// Skip malformed sessions.
				continue
			}
			if sess.IsExpired() {
				expiredIDs = append(expiredIDs, sess.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	for _, id := range expiredIDs {
		if err := s.DeleteSession(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
		}
	}
	return len(expiredIDs), nil
}
