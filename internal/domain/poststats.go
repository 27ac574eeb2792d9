package domain

import "time"

// PostStat is the SQL row backing a slug's view counter. It is created lazily
// on the first view or like of a slug.
type PostStat struct {
	Slug      string    `gorm:"type:varchar(200);primaryKey"`
	Views     int64     `gorm:"not null;default:0;check:views >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for PostStat.
func (PostStat) TableName() string { return "post_stats" }

// PostLike holds one visitor's like count for a slug. The pair
// (slug, user_hash) is unique so increments can be expressed as upserts.
type PostLike struct {
	Slug      string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_post_likes_slug_user,priority:1"`
	UserHash  string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_post_likes_slug_user,priority:2"`
	Count     int64     `gorm:"not null;default:0;check:count >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for PostLike.
func (PostLike) TableName() string { return "post_likes" }

// PostStats is the backend-independent view of a slug's counters.
// Total likes are never stored; see TotalLikes.
type PostStats struct {
	Slug        string           `json:"slug"`
	Views       int64            `json:"views"`
	LikesByUser map[string]int64 `json:"likesByUser"`
}

// NewPostStats returns the zero record for slug.
func NewPostStats(slug string) *PostStats {
	return &PostStats{Slug: slug, LikesByUser: map[string]int64{}}
}

// TotalLikes sums the per-user like counts.
func (p *PostStats) TotalLikes() int64 {
	if p == nil {
		return 0
	}
	var total int64
	for _, n := range p.LikesByUser {
		total += n
	}
	return total
}

// UserLikes returns userHash's like count (0 when absent).
func (p *PostStats) UserLikes(userHash string) int64 {
	if p == nil {
		return 0
	}
	return p.LikesByUser[userHash]
}
