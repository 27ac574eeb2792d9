// Package services – PostStatsService
//
// This file implements the per-post counters shown next to each article:
// a view count and per-visitor likes capped at a configurable maximum. The
// counters live behind PostStatsStore so the backing store (SQL, Redis or
// Badger) can change without touching callers. Stores perform increments
// atomically; this service only validates input and shapes results.

package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-blog-analytics/internal/domain"
	"github.com/tbourn/go-blog-analytics/internal/observability"
	"github.com/tbourn/go-blog-analytics/internal/validation"
)

const poststatsTracer = "services/PostStatsService"

// DefaultLikesPerUserMax is the per-visitor like cap used when none is set.
const DefaultLikesPerUserMax = 50

// PostStatsStore is the storage contract for post counters. Implementations
// must apply each increment atomically and return the state after it.
type PostStatsStore interface {
	IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error)
	IncrementLike(ctx context.Context, slug, userHash string, limit int64) (*domain.PostStats, error)
	Get(ctx context.Context, slug string) (*domain.PostStats, error)
}

// LikesResult is returned by like operations.
type LikesResult struct {
	TotalLikes  int64 `json:"totalLikes"`
	LikesByUser int64 `json:"likesByUser"`
}

// PostSummary is the public view of a post's counters.
type PostSummary struct {
	Slug       string `json:"slug"`
	Views      int64  `json:"views"`
	TotalLikes int64  `json:"totalLikes"`
}

// PostStatsService validates slugs and delegates to a PostStatsStore.
type PostStatsService struct {
	Store           PostStatsStore
	LikesPerUserMax int64
}

func (s *PostStatsService) maxLikes() int64 {
	if s.LikesPerUserMax > 0 {
		return s.LikesPerUserMax
	}
	return DefaultLikesPerUserMax
}

// canonicalSlug validates slug and folds it to lower case so that
// "Hello-World" and "hello-world" share one set of counters.
func canonicalSlug(slug string) (string, error) {
	if !validation.ValidSlug(slug) {
		return "", ErrInvalidSlug
	}
	return strings.ToLower(slug), nil
}

func startPostSpan(ctx context.Context, name, slug string) (context.Context, trace.Span) {
	return otel.Tracer(poststatsTracer).Start(ctx, name,
		trace.WithAttributes(attribute.String("post.slug", slug)),
	)
}

// IncrementViews records one view and returns the updated record.
func (s *PostStatsService) IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error) {
	slug, err := canonicalSlug(slug)
	if err != nil {
		return nil, err
	}
	ctx, span := startPostSpan(ctx, "IncrementViews", slug)
	defer span.End()

	p, err := s.Store.IncrementViews(ctx, slug)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("increment views failed")
		return nil, err
	}
	observability.PostViewed()
	return p, nil
}

// IncrementLikes adds one like by userHash. Once the user reached the cap
// the call changes nothing and reports the current state.
func (s *PostStatsService) IncrementLikes(ctx context.Context, slug, userHash string) (*LikesResult, error) {
	slug, err := canonicalSlug(slug)
	if err != nil {
		return nil, err
	}
	if userHash == "" {
		return nil, ErrInvalidUser
	}
	ctx, span := startPostSpan(ctx, "IncrementLikes", slug)
	defer span.End()

	limit := s.maxLikes()
	current, err := s.Store.Get(ctx, slug)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("read likes failed")
		return nil, err
	}
	if current.UserLikes(userHash) >= limit {
		observability.PostLiked(true)
		span.SetAttributes(attribute.Bool("post.like_capped", true))
		return likesResult(current, userHash), nil
	}

	p, err := s.Store.IncrementLike(ctx, slug, userHash, limit)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("increment likes failed")
		return nil, err
	}
	observability.PostLiked(false)
	return likesResult(p, userHash), nil
}

// GetLikesByUser returns userHash's like count for slug.
func (s *PostStatsService) GetLikesByUser(ctx context.Context, slug, userHash string) (int64, error) {
	p, err := s.get(ctx, "GetLikesByUser", slug)
	if err != nil {
		return 0, err
	}
	return p.UserLikes(userHash), nil
}

// GetTotalLikes returns the sum of all users' likes for slug.
func (s *PostStatsService) GetTotalLikes(ctx context.Context, slug string) (int64, error) {
	p, err := s.get(ctx, "GetTotalLikes", slug)
	if err != nil {
		return 0, err
	}
	return p.TotalLikes(), nil
}

// Likes returns the total and userHash's count in one read.
func (s *PostStatsService) Likes(ctx context.Context, slug, userHash string) (*LikesResult, error) {
	p, err := s.get(ctx, "Likes", slug)
	if err != nil {
		return nil, err
	}
	return likesResult(p, userHash), nil
}

// Get returns views and total likes for slug. Unknown slugs report zeros.
func (s *PostStatsService) Get(ctx context.Context, slug string) (*PostSummary, error) {
	p, err := s.get(ctx, "Get", slug)
	if err != nil {
		return nil, err
	}
	return &PostSummary{Slug: strings.ToLower(slug), Views: p.Views, TotalLikes: p.TotalLikes()}, nil
}

func (s *PostStatsService) get(ctx context.Context, op, slug string) (*domain.PostStats, error) {
	slug, err := canonicalSlug(slug)
	if err != nil {
		return nil, err
	}
	ctx, span := startPostSpan(ctx, op, slug)
	defer span.End()

	p, err := s.Store.Get(ctx, slug)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("read post stats failed")
		return nil, err
	}
	return p, nil
}

func likesResult(p *domain.PostStats, userHash string) *LikesResult {
	return &LikesResult{TotalLikes: p.TotalLikes(), LikesByUser: p.UserLikes(userHash)}
}
