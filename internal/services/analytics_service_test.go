package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-blog-analytics/internal/domain"
	"github.com/tbourn/go-blog-analytics/internal/geo"
	"github.com/tbourn/go-blog-analytics/internal/repo"
	"github.com/tbourn/go-blog-analytics/internal/validation"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func sp(s string) *string { return &s }

func mustNY(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestIngest_StoresSessionWithGeoAndUTC(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t)}
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	loc := geo.Location{City: sp("Berlin"), Country: sp("DE"), Flag: sp("🇩🇪"), Latitude: sp("52.52")}

	sess, err := s.Ingest(context.Background(), IngestRequest{Path: "/blog/hello", OS: sp("Linux"), Device: sp("desktop")}, loc, now)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sess.ID == "" || !sess.CreatedAt.Equal(now) || sess.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if *sess.Country != "DE" || *sess.City != "Berlin" || sess.Referrer != nil {
		t.Fatalf("geo/nullable fields not stored as given: %+v", sess)
	}

	n, _ := s.TotalSessions(context.Background())
	if n != 1 {
		t.Fatalf("total = %d; want 1", n)
	}
}

func TestIngest_ValidationError(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t)}
	for _, path := range []string{"", "no-slash", "/" + string(make([]byte, 2048))} {
		_, err := s.Ingest(context.Background(), IngestRequest{Path: path}, geo.Location{}, time.Now())
		if !validation.IsValidationError(err) {
			t.Fatalf("path %.10q: want validation error, got %v", path, err)
		}
	}
	if n, _ := s.TotalSessions(context.Background()); n != 0 {
		t.Fatalf("invalid requests must not insert, total=%d", n)
	}
}

func TestIngest_StorageErrorIsReturned(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrator().DropTable(&domain.Session{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	s := &AnalyticsService{DB: db}
	_, err := s.Ingest(context.Background(), IngestRequest{Path: "/"}, geo.Location{}, time.Now())
	if err == nil || validation.IsValidationError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestIngestOnce_ReplaysWithinTTL(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t), IdempotencyTTL: time.Hour}
	ctx := context.Background()
	now := time.Now()

	first, replayed, err := s.IngestOnce(ctx, "key-1", IngestRequest{Path: "/a"}, geo.Location{}, now)
	if err != nil || replayed {
		t.Fatalf("first: replayed=%v err=%v", replayed, err)
	}
	second, replayed, err := s.IngestOnce(ctx, "key-1", IngestRequest{Path: "/a"}, geo.Location{}, now.Add(time.Second))
	if err != nil || !replayed {
		t.Fatalf("second: replayed=%v err=%v", replayed, err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay returned a different session: %s vs %s", second.ID, first.ID)
	}
	if n, _ := s.TotalSessions(ctx); n != 1 {
		t.Fatalf("replay must not insert, total=%d", n)
	}

	if _, replayed, _ := s.IngestOnce(ctx, "", IngestRequest{Path: "/a"}, geo.Location{}, now); replayed {
		t.Fatalf("empty key must never replay")
	}
	if n, _ := s.TotalSessions(ctx); n != 2 {
		t.Fatalf("empty key should insert, total=%d", n)
	}
}

func TestIngestOnce_KeyWithMissingSessionIsConflict(t *testing.T) {
	db := newTestDB(t)
	s := &AnalyticsService{DB: db, IdempotencyTTL: time.Hour}
	ctx := context.Background()
	now := time.Now()

	if _, err := repo.CreateIdempotency(ctx, db, "orphan", "gone", now, time.Hour); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	sess, replayed, err := s.IngestOnce(ctx, "orphan", IngestRequest{Path: "/a"}, geo.Location{}, now)
	if !errors.Is(err, ErrIdempotencyConflict) || sess != nil || replayed {
		t.Fatalf("got sess=%v replayed=%v err=%v; want ErrIdempotencyConflict", sess, replayed, err)
	}
	if n, _ := s.TotalSessions(ctx); n != 0 {
		t.Fatalf("conflict must not insert, total=%d", n)
	}
}

func TestIngestOnce_KeyExpiryUsesCallerTime(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t), IdempotencyTTL: time.Hour}
	ctx := context.Background()
	then := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)

	first, _, err := s.IngestOnce(ctx, "old-key", IngestRequest{Path: "/a"}, geo.Location{}, then)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, replayed, _ := s.IngestOnce(ctx, "old-key", IngestRequest{Path: "/a"}, geo.Location{}, then.Add(30*time.Minute)); !replayed {
		t.Fatalf("retry inside the ttl should replay")
	}
	second, replayed, err := s.IngestOnce(ctx, "old-key", IngestRequest{Path: "/a"}, geo.Location{}, then.Add(2*time.Hour))
	if err != nil || replayed || second.ID == first.ID {
		t.Fatalf("after ttl: replayed=%v err=%v", replayed, err)
	}
}

func TestAggregates_RepeatedReadsAreIdentical(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t), Location: mustNY(t)}
	ctx := context.Background()
	base := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	seed := []struct {
		req IngestRequest
		loc geo.Location
	}{
		{IngestRequest{Path: "/a", OS: sp("Windows")}, geo.Location{Country: sp("GR"), Flag: sp("🇬🇷")}},
		{IngestRequest{Path: "/b", OS: sp("macOS")}, geo.Location{Country: sp("US"), Flag: sp("🇺🇸")}},
		{IngestRequest{Path: "/a", OS: sp("Windows")}, geo.Location{}},
		{IngestRequest{Path: "/c"}, geo.Location{Country: sp("GR"), Flag: sp("🇬🇷")}},
	}
	for i, r := range seed {
		if _, err := s.Ingest(ctx, r.req, r.loc, base.Add(time.Duration(i)*5*time.Hour)); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	reads := []struct {
		name string
		fn   func() (any, error)
	}{
		{"os", func() (any, error) { return s.OS(ctx) }},
		{"countries", func() (any, error) { return s.Countries(ctx) }},
		{"visits", func() (any, error) { return s.Visits(ctx, 0) }},
		{"dashboard", func() (any, error) { return s.Dashboard(ctx, 0) }},
	}
	for _, r := range reads {
		first, err := r.fn()
		if err != nil {
			t.Fatalf("%s: %v", r.name, err)
		}
		second, err := r.fn()
		if err != nil {
			t.Fatalf("%s again: %v", r.name, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s differs between reads:\n%+v\n%+v", r.name, first, second)
		}
	}
}

func TestAggregates_OSExampleEndToEnd(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t)}
	ctx := context.Background()
	now := time.Now()
	for _, os := range []string{"Windows", "Windows", "macOS"} {
		if _, err := s.Ingest(ctx, IngestRequest{Path: "/", OS: sp(os)}, geo.Location{}, now); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	rows, err := s.OS(ctx)
	if err != nil {
		t.Fatalf("os: %v", err)
	}
	want := []domain.GroupCount{
		{Dimension: domain.DimensionOS, Value: "Windows", Count: 2, Percent: 66.7},
		{Dimension: domain.DimensionOS, Value: "macOS", Count: 1, Percent: 33.3},
	}
	if len(rows) != len(want) || rows[0] != want[0] || rows[1] != want[1] {
		t.Fatalf("got %+v; want %+v", rows, want)
	}

	// Reads are idempotent.
	again, _ := s.OS(ctx)
	if len(again) != 2 || again[0] != rows[0] {
		t.Fatalf("second read differs: %+v", again)
	}
}

func TestDevices_TitleCasedAndUnknown(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t)}
	ctx := context.Background()
	for _, d := range []*string{sp("mobile"), sp("Mobile"), sp("desktop"), nil} {
		if _, err := s.Ingest(ctx, IngestRequest{Path: "/", Device: d}, geo.Location{}, time.Now()); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	rows, err := s.Devices(ctx)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(rows) != 3 || rows[0].Value != "Mobile" || rows[0].Count != 2 || rows[1].Value != "Desktop" || rows[2].Value != "Unknown" {
		t.Fatalf("unexpected devices: %+v", rows)
	}
}

func TestVisits_BucketsInConfiguredZone(t *testing.T) {
	ny := mustNY(t)
	s := &AnalyticsService{DB: newTestDB(t), Location: ny}
	ctx := context.Background()

	// 03:00Z is still March 9 in New York; 05:00Z is March 10.
	for _, ts := range []time.Time{
		time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC),
	} {
		if _, err := s.Ingest(ctx, IngestRequest{Path: "/"}, geo.Location{}, ts); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	got, err := s.Visits(ctx, 0)
	if err != nil {
		t.Fatalf("visits: %v", err)
	}
	want := []domain.VisitPoint{{Date: "2024-03-09", Visits: 1}, {Date: "2024-03-10", Visits: 2}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %+v; want %+v", got, want)
	}

	utc := &AnalyticsService{DB: s.DB}
	got, _ = utc.Visits(ctx, 0)
	if len(got) != 1 || got[0].Date != "2024-03-10" || got[0].Visits != 3 {
		t.Fatalf("UTC bucketing unexpected: %+v", got)
	}
}

func TestVisits_TrailingWindow(t *testing.T) {
	ny := mustNY(t)
	s := &AnalyticsService{
		DB:       newTestDB(t),
		Location: ny,
		Clock:    func() time.Time { return time.Date(2024, 3, 12, 12, 0, 0, 0, ny) },
	}
	ctx := context.Background()
	for day := 9; day <= 12; day++ {
		ts := time.Date(2024, 3, day, 10, 0, 0, 0, ny)
		if _, err := s.Ingest(ctx, IngestRequest{Path: "/"}, geo.Location{}, ts); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	got, err := s.Visits(ctx, 2)
	if err != nil {
		t.Fatalf("visits: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2024-03-11" || got[1].Date != "2024-03-12" {
		t.Fatalf("unexpected window: %+v", got)
	}
	if _, err := s.Visits(ctx, -1); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("want ErrInvalidDays, got %v", err)
	}
	if _, err := s.Dashboard(ctx, -1); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("dashboard: want ErrInvalidDays, got %v", err)
	}
	empty, err := (&AnalyticsService{DB: newTestDB(t)}).Visits(ctx, 0)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty series should be [] not nil: %v %v", empty, err)
	}
}

func TestDashboard_GroupSumsMatchTotal(t *testing.T) {
	s := &AnalyticsService{DB: newTestDB(t)}
	ctx := context.Background()
	seed := []IngestRequest{
		{Path: "/a", OS: sp("Windows"), Browser: sp("Chrome"), Device: sp("desktop"), Referrer: sp("https://news.ycombinator.com")},
		{Path: "/a", OS: sp("iOS"), Browser: sp("Safari"), Device: sp("mobile")},
		{Path: "/b", OS: sp("Windows"), Browser: sp("Firefox"), Device: sp("desktop")},
		{Path: "/c"},
	}
	for i, r := range seed {
		loc := geo.Location{}
		if i%2 == 0 {
			loc = geo.Location{Country: sp("US"), Flag: sp("🇺🇸")}
		}
		if _, err := s.Ingest(ctx, r, loc, time.Now()); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	d, err := s.Dashboard(ctx, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Total != 4 {
		t.Fatalf("total = %d", d.Total)
	}
	for name, rows := range map[string][]domain.GroupCount{
		"os": d.OS, "browsers": d.Browsers, "devices": d.Devices, "referrers": d.Referrers, "paths": d.Paths,
	} {
		var sum int64
		for _, r := range rows {
			sum += r.Count
		}
		if sum != d.Total {
			t.Fatalf("%s: sum %d != total %d", name, sum, d.Total)
		}
	}
	if len(d.Countries) != 1 || d.Countries[0].Count != 2 || d.Countries[0].Percent != 100 {
		t.Fatalf("countries unexpected: %+v", d.Countries)
	}
	if len(d.Visits) != 1 || d.Visits[0].Visits != 4 {
		t.Fatalf("visits unexpected: %+v", d.Visits)
	}
}
