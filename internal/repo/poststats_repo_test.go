package repo

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tbourn/go-blog-analytics/internal/domain"
)

func newStatsStore(t *testing.T) *PostStatsStore {
	t.Helper()
	return NewPostStatsStore(newTestDB(t, &domain.PostStat{}, &domain.PostLike{}))
}

func TestPostStatsStore_GetMissing_IsZeroAndDoesNotWrite(t *testing.T) {
	s := newStatsStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "never-seen")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Slug != "never-seen" || got.Views != 0 || len(got.LikesByUser) != 0 {
		t.Fatalf("expected zero record, got %+v", got)
	}
	var n int64
	s.DB.Model(&domain.PostStat{}).Count(&n)
	if n != 0 {
		t.Fatalf("Get must not create rows, found %d", n)
	}
}

func TestPostStatsStore_IncrementViews(t *testing.T) {
	s := newStatsStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := s.IncrementViews(ctx, "hello")
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if got.Views != int64(i) {
			t.Fatalf("after %d increments views=%d", i, got.Views)
		}
	}
	other, _ := s.Get(ctx, "other")
	if other.Views != 0 {
		t.Fatalf("slugs must be independent: %+v", other)
	}
}

func TestPostStatsStore_IncrementLike_CapAndPerUser(t *testing.T) {
	s := newStatsStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.IncrementLike(ctx, "p", "h1", 3); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	got, err := s.IncrementLike(ctx, "p", "h2", 3)
	if err != nil {
		t.Fatalf("like h2: %v", err)
	}
	if got.LikesByUser["h1"] != 3 || got.LikesByUser["h2"] != 1 {
		t.Fatalf("unexpected likes: %+v", got.LikesByUser)
	}
	if got.TotalLikes() != 4 {
		t.Fatalf("total likes = %d; want 4", got.TotalLikes())
	}
	if got.Views != 0 {
		t.Fatalf("likes must not touch views: %d", got.Views)
	}
}

func TestPostStatsStore_ConcurrentViews(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewPostStatsStore(db)
	ctx := context.Background()

	const workers, each = 8, 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*each)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if _, err := s.IncrementViews(ctx, "busy"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent increment: %v", err)
	}

	got, err := s.Get(ctx, "busy")
	if err != nil || got.Views != workers*each {
		t.Fatalf("views=%d want %d (err=%v)", got.Views, workers*each, err)
	}
}
