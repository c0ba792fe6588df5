package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/util"
)

// Tags are community-wide and keyed by slug; there is no separate tag ID.

// upsertTagsInTxn increments the question count of each slug, creating
// missing tags with the display name from names.
func upsertTagsInTxn(txn *badger.Txn, slugs []string, names map[string]string, now time.Time) error {
	for _, slug := range slugs {
		var t domain.Tag
		err := getJSON(txn, tagKey(slug), &t)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			name := names[slug]
			if name == "" {
				name = slug
			}
			t = domain.Tag{Slug: slug, Name: name, CreatedAt: now}
		case err != nil:
			return fmt.Errorf("get tag %s: %w", slug, err)
		}

		t.QuestionCount++
		t.UpdatedAt = now
		if err := setJSON(txn, tagKey(slug), &t); err != nil {
			return err
		}
	}
	return nil
}

// GetTag retrieves a tag by slug.
func (s *Store) GetTag(ctx context.Context, slug string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	if err := s.get(tagKey(slug), &t); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTags returns all tags ordered by question count (descending), then slug.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.scanTags(ctx, "")
}

// SuggestTags returns up to limit tags whose slug starts with the slug form
// of prefix, most used first.
func (s *Store) SuggestTags(ctx context.Context, prefix string, limit int) ([]*domain.Tag, error) {
	slugPrefix := util.NormalizeTagSlug(prefix)
	if slugPrefix == "" && strings.TrimSpace(prefix) != "" {
		return []*domain.Tag{}, nil
	}

	tags, err := s.scanTags(ctx, slugPrefix)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// SeedTags creates any of names that do not exist yet, with a zero count.
// It returns how many were created.
func (s *Store) SeedTags(ctx context.Context, names []string) (int, error) {
	now := time.Now()
	var missing []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		for _, name := range names {
			slug := util.NormalizeTagSlug(name)
			if slug == "" {
				continue
			}
			if _, err := txn.Get(tagKey(slug)); errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, &domain.Tag{Slug: slug, Name: name, CreatedAt: now, UpdatedAt: now})
			} else if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("check seed tags: %w", err)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	batch := s.NewBatchWriter(len(missing))
	for _, t := range missing {
		if err := batch.PutTag(ctx, t); err != nil {
			batch.Cancel()
			return 0, err
		}
	}
	if err := batch.Flush(); err != nil {
		return 0, err
	}
	return len(missing), nil
}

func (s *Store) scanTags(ctx context.Context, slugPrefix string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagPrefix + slugPrefix)
	tags := []*domain.Tag{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t domain.Tag
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				continue
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].QuestionCount != tags[j].QuestionCount {
			return tags[i].QuestionCount > tags[j].QuestionCount
		}
		return tags[i].Slug < tags[j].Slug
	})
	return tags, nil
}
