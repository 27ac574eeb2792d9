package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_GetMissing(t *testing.T) {
	s, mr := newRedisStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Views != 0 || len(got.LikesByUser) != 0 || got.Slug != "nope" {
		t.Fatalf("expected zero record: %+v", got)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("Get must not write, found keys %v", keys)
	}
}

func TestRedisStore_ViewsAndCappedLikes(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := s.IncrementViews(ctx, "post")
		if err != nil || got.Views != int64(i) {
			t.Fatalf("views after %d: %+v err=%v", i, got, err)
		}
	}

	for i := 0; i < 4; i++ {
		if _, err := s.IncrementLike(ctx, "post", "h1", 2); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	got, err := s.IncrementLike(ctx, "post", "h2", 2)
	if err != nil {
		t.Fatalf("like h2: %v", err)
	}
	if got.LikesByUser["h1"] != 2 || got.LikesByUser["h2"] != 1 || got.TotalLikes() != 3 || got.Views != 3 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestRedisStore_ConcurrentViews(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrementViews(ctx, "hot")
		}()
	}
	wg.Wait()
	got, _ := s.Get(ctx, "hot")
	if got.Views != 50 {
		t.Fatalf("views=%d want 50", got.Views)
	}
}

func TestRedisStore_ErrorsPropagate(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb)
	if _, err := s.IncrementViews(context.Background(), "x"); err == nil {
		t.Fatalf("expected error when server is unreachable")
	}
	if _, err := s.Get(context.Background(), "x"); err == nil {
		t.Fatalf("expected error when server is unreachable")
	}
}
