// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file implements the SQL post stats store: a views
// counter per slug and a capped like counter per (slug, user hash), both
// maintained with single-statement upserts.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-blog-analytics/internal/domain"
)

// PostStatsStore persists post counters in the post_stats and post_likes
// tables.
type PostStatsStore struct {
	DB *gorm.DB
}

// NewPostStatsStore returns a store over db.
func NewPostStatsStore(db *gorm.DB) *PostStatsStore {
	return &PostStatsStore{DB: db}
}

// IncrementViews adds one view to slug, creating the row on first use, and
// returns the updated record.
func (s *PostStatsStore) IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error) {
	var out *domain.PostStats
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		row := &domain.PostStat{Slug: slug, Views: 1, CreatedAt: now, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.Assignments(map[string]any{
				"views":      gorm.Expr("views + 1"),
				"updated_at": now,
			}),
		}).Create(row).Error; err != nil {
			return err
		}
		var err error
		out, err = loadPostStats(tx, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementLike adds one like by userHash to slug unless that user already
// reached limit, in which case the stored state is left unchanged. The
// returned record reflects the state after the attempt.
func (s *PostStatsStore) IncrementLike(ctx context.Context, slug, userHash string, limit int64) (*domain.PostStats, error) {
	var out *domain.PostStats
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.PostStat{Slug: slug, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
			return err
		}
		like := &domain.PostLike{Slug: slug, UserHash: userHash, Count: 1, CreatedAt: now, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}, {Name: "user_hash"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("post_likes.count + 1"),
				"updated_at": now,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("post_likes.count < ?", limit),
			}},
		}).Create(like).Error; err != nil {
			return err
		}
		var err error
		out, err = loadPostStats(tx, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get reads slug's counters. A slug that was never viewed or liked yields
// the zero record; nothing is written.
func (s *PostStatsStore) Get(ctx context.Context, slug string) (*domain.PostStats, error) {
	return loadPostStats(s.DB.WithContext(ctx), slug)
}

func loadPostStats(db *gorm.DB, slug string) (*domain.PostStats, error) {
	out := domain.NewPostStats(slug)

	var row domain.PostStat
	err := db.Where("slug = ?", slug).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		out.Views = row.Views
	}

	var likes []domain.PostLike
	if err := db.Where("slug = ?", slug).Find(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		out.LikesByUser[l.UserHash] = l.Count
	}
	return out, nil
}
