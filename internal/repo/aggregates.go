// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the read-only aggregation queries over the
// sessions table.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-analytics/internal/domain"
)

type groupQuery struct {
	value string // SQL expression for the grouped value
	flag  string // SQL expression for the flag column; "" when not grouped
	where string
}

var groupQueries = map[string]groupQuery{
	domain.DimensionOS:       {value: "COALESCE(NULLIF(TRIM(os), ''), 'Unknown')"},
	domain.DimensionBrowser:  {value: "COALESCE(NULLIF(TRIM(browser), ''), 'Unknown')"},
	domain.DimensionDevice:   {value: "COALESCE(NULLIF(LOWER(TRIM(device)), ''), 'unknown')"},
	domain.DimensionReferrer: {value: "COALESCE(NULLIF(TRIM(referrer), ''), 'direct')"},
	domain.DimensionPath:     {value: "path"},
	domain.DimensionCountry: {
		value: "country",
		flag:  "COALESCE(flag, '')",
		where: "country IS NOT NULL AND TRIM(country) <> ''",
	},
}

// CountSessionsBy groups sessions by dimension and returns each group's count
// and its share of all grouped rows, rounded to one decimal. Rows are ordered
// by count descending, ties by value ascending.
func CountSessionsBy(ctx context.Context, db *gorm.DB, dimension string) ([]domain.GroupCount, error) {
	q, ok := groupQueries[dimension]
	if !ok {
		return nil, fmt.Errorf("repo: unknown dimension %q", dimension)
	}

	flagExpr, groupBy := "''", "1"
	if q.flag != "" {
		flagExpr, groupBy = q.flag, "1, 2"
	}
	sql := fmt.Sprintf(`SELECT %s AS value, %s AS flag, COUNT(*) AS "count",
		ROUND(COUNT(*) * 100.0 / SUM(COUNT(*)) OVER (), 1) AS percent
		FROM sessions`, q.value, flagExpr)
	if q.where != "" {
		sql += " WHERE " + q.where
	}
	sql += " GROUP BY " + groupBy + " ORDER BY 3 DESC, 1 ASC"

	var rows []struct {
		Value   string
		Flag    string
		Count   int64
		Percent float64
	}
	if err := db.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.GroupCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.GroupCount{
			Dimension: dimension,
			Value:     r.Value,
			Flag:      r.Flag,
			Count:     r.Count,
			Percent:   r.Percent,
		})
	}
	return out, nil
}

// CountSessions returns the total number of recorded sessions.
func CountSessions(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Session{}).Count(&n).Error
	return n, err
}

// BucketWidth is the granularity of SessionBuckets. Every UTC offset in use
// is a whole multiple of it, so a bucket never straddles a local midnight.
const BucketWidth = 15 * time.Minute

// SessionBucket counts the sessions created in [Start, Start+BucketWidth).
type SessionBucket struct {
	Start time.Time
	Count int64
}

// SessionBuckets counts sessions at or after since (all sessions when since
// is zero) per BucketWidth slot of UTC time, oldest first. The result grows
// with the covered time span, not with the number of sessions.
func SessionBuckets(ctx context.Context, db *gorm.DB, since time.Time) ([]SessionBucket, error) {
	width := int64(BucketWidth / time.Second)
	q := db.WithContext(ctx).
		Model(&domain.Session{}).
		Select(`(CAST(strftime('%s', created_at) AS INTEGER) / ?) * ? AS slot, COUNT(*) AS visits`, width, width).
		Where("created_at IS NOT NULL")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}

	var rows []struct {
		Slot   int64
		Visits int64
	}
	if err := q.Group("slot").Order("slot ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SessionBucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionBucket{Start: time.Unix(r.Slot, 0).UTC(), Count: r.Visits})
	}
	return out, nil
}
