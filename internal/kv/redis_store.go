// Package kv holds key-value implementations of the post stats store. Each
// backend performs its increments atomically inside the store so concurrent
// requests never lose updates.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tbourn/go-blog-analytics/internal/domain"
)

const viewsField = "views"

// likeScript increments ARGV[1]'s like count in KEYS[1] unless it already
// reached ARGV[2]. It returns the count after the attempt.
var likeScript = goredis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if cur < tonumber(ARGV[2]) then
  cur = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
end
return cur
`)

// RedisStore keeps one hash per slug for views and one for likes keyed by
// user hash. Keys share a hash tag so a slug's data lives on one cluster slot.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb goredis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "poststats:"}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) statsKey(slug string) string { return s.prefix + "{" + slug + "}" }
func (s *RedisStore) likesKey(slug string) string { return s.prefix + "{" + slug + "}:likes" }

// IncrementViews runs HINCRBY on the slug's views field.
func (s *RedisStore) IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error) {
	if err := s.rdb.HIncrBy(ctx, s.statsKey(slug), viewsField, 1).Err(); err != nil {
		return nil, err
	}
	return s.Get(ctx, slug)
}

// IncrementLike runs the capped increment script for userHash.
func (s *RedisStore) IncrementLike(ctx context.Context, slug, userHash string, limit int64) (*domain.PostStats, error) {
	if err := likeScript.Run(ctx, s.rdb, []string{s.likesKey(slug)}, userHash, limit).Err(); err != nil {
		return nil, err
	}
	return s.Get(ctx, slug)
}

// Get reads views and likes in one round trip. Missing keys yield zeros.
func (s *RedisStore) Get(ctx context.Context, slug string) (*domain.PostStats, error) {
	var (
		views *goredis.StringCmd
		likes *goredis.MapStringStringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		views = p.HGet(ctx, s.statsKey(slug), viewsField)
		likes = p.HGetAll(ctx, s.likesKey(slug))
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, err
	}

	out := domain.NewPostStats(slug)
	if v, err := views.Int64(); err == nil {
		out.Views = v
	} else if !errors.Is(err, goredis.Nil) {
		return nil, err
	}
	m, err := likes.Result()
	if err != nil {
		return nil, err
	}
	for user, raw := range m {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("likes for %s: %w", user, err)
		}
		out.LikesByUser[user] = n
	}
	return out, nil
}
