package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tbourn/go-blog-analytics/internal/domain"
)

const (
	postKeyPrefix = "post:"
	maxTxnRetries = 256
)

// BadgerStore keeps each slug's record as one JSON value. Increments are
// read-modify-write transactions retried on conflict.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens a database at path, or an in-memory one when path is "".
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

// IncrementViews adds one view.
func (s *BadgerStore) IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error) {
	return s.update(ctx, slug, func(p *domain.PostStats) {
		p.Views++
	})
}

// IncrementLike adds one like by userHash unless it already reached limit.
func (s *BadgerStore) IncrementLike(ctx context.Context, slug, userHash string, limit int64) (*domain.PostStats, error) {
	return s.update(ctx, slug, func(p *domain.PostStats) {
		if p.LikesByUser[userHash] < limit {
			p.LikesByUser[userHash]++
		}
	})
}

// Get reads the record; a missing slug yields the zero record.
func (s *BadgerStore) Get(ctx context.Context, slug string) (*domain.PostStats, error) {
	var out *domain.PostStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readPost(txn, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) update(ctx context.Context, slug string, mutate func(*domain.PostStats)) (*domain.PostStats, error) {
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var out *domain.PostStats
		err := s.db.Update(func(txn *badger.Txn) error {
			p, err := readPost(txn, slug)
			if err != nil {
				return err
			}
			mutate(p)
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal post stats: %w", err)
			}
			if err := txn.Set([]byte(postKeyPrefix+slug), data); err != nil {
				return err
			}
			out = p
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("post stats %q: %w", slug, badger.ErrConflict)
}

func readPost(txn *badger.Txn, slug string) (*domain.PostStats, error) {
	out := domain.NewPostStats(slug)
	item, err := txn.Get([]byte(postKeyPrefix + slug))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post stats: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
	if err != nil {
		return nil, err
	}
	if out.LikesByUser == nil {
		out.LikesByUser = map[string]int64{}
	}
	out.Slug = slug
	return out, nil
}
