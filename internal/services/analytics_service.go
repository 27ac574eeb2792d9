// Package services – AnalyticsService
//
// This file implements AnalyticsService, which stores page-view sessions and
// answers the read-only aggregation queries behind the dashboard. Writes are
// append-only; every grouped query computes counts and percentages in a
// single statement so each result is internally consistent.
//
// Observability: public methods are OpenTelemetry-instrumented and failures
// are logged through the request-scoped zerolog logger.

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-analytics/internal/domain"
	"github.com/tbourn/go-blog-analytics/internal/geo"
	"github.com/tbourn/go-blog-analytics/internal/observability"
	"github.com/tbourn/go-blog-analytics/internal/repo"
	"github.com/tbourn/go-blog-analytics/internal/validation"
)

const analyticsTracer = "services/AnalyticsService"

// IngestRequest is the client-reported part of a page view.
type IngestRequest struct {
	Path     string  `json:"path"     validate:"required,startswith=/,max=2048"`
	Referrer *string `json:"referrer" validate:"omitempty,max=2048"`
	Browser  *string `json:"browser"  validate:"omitempty,max=64"`
	OS       *string `json:"os"       validate:"omitempty,max=64"`
	Device   *string `json:"device"   validate:"omitempty,max=32"`
	Screen   *string `json:"screen"   validate:"omitempty,max=32"`
	Language *string `json:"language" validate:"omitempty,max=35"`
}

// Dashboard bundles every aggregation for one request.
type Dashboard struct {
	Total     int64               `json:"total"`
	OS        []domain.GroupCount `json:"os"`
	Browsers  []domain.GroupCount `json:"browsers"`
	Devices   []domain.GroupCount `json:"devices"`
	Referrers []domain.GroupCount `json:"referrers"`
	Paths     []domain.GroupCount `json:"paths"`
	Countries []domain.GroupCount `json:"countries"`
	Visits    []domain.VisitPoint `json:"visits"`
}

// AnalyticsService records sessions and serves aggregates.
type AnalyticsService struct {
	DB *gorm.DB

	// Location is the zone used to bucket visits by calendar day.
	// Defaults to UTC when nil.
	Location *time.Location

	// IdempotencyTTL bounds how long an Idempotency-Key is honored.
	IdempotencyTTL time.Duration

	// Clock returns the current time; defaults to time.Now.
	Clock func() time.Time
}

func (s *AnalyticsService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *AnalyticsService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Ingest validates req and stores one session enriched with loc. The stored
// row is returned with CreatedAt set to now in UTC.
func (s *AnalyticsService) Ingest(ctx context.Context, req IngestRequest, loc geo.Location, now time.Time) (*domain.Session, error) {
	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "Ingest",
		trace.WithAttributes(attribute.String("session.path", req.Path)),
	)
	defer span.End()

	if err := validation.Struct(&req); err != nil {
		observability.IngestFailed(observability.ReasonValidation)
		span.SetStatus(codes.Error, "validation")
		return nil, err
	}

	sess := newSession(req, loc, now)
	if err := repo.CreateSession(ctx, s.DB, sess); err != nil {
		s.storageFailure(ctx, span, err, "insert session failed")
		return nil, err
	}
	observability.SessionIngested(deref(sess.Device))
	return sess, nil
}

// IngestOnce behaves like Ingest, but when key was already used within the
// idempotency TTL it returns the originally stored session and replayed=true
// instead of inserting a second row. An empty key disables the check.
func (s *AnalyticsService) IngestOnce(ctx context.Context, key string, req IngestRequest, loc geo.Location, now time.Time) (sess *domain.Session, replayed bool, err error) {
	if key == "" {
		sess, err = s.Ingest(ctx, req, loc, now)
		return sess, false, err
	}

	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "IngestOnce",
		trace.WithAttributes(attribute.String("session.path", req.Path)),
	)
	defer span.End()

	if err := validation.Struct(&req); err != nil {
		observability.IngestFailed(observability.ReasonValidation)
		span.SetStatus(codes.Error, "validation")
		return nil, false, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.GetIdempotency(ctx, tx, key, now)
		switch {
		case err == nil:
			sess, err = repo.GetSession(ctx, tx, rec.SessionID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrIdempotencyConflict
			}
			replayed = err == nil
			return err
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		sess = newSession(req, loc, now)
		if err := repo.CreateSession(ctx, tx, sess); err != nil {
			return err
		}
		_, err = repo.CreateIdempotency(ctx, tx, key, sess.ID, now, s.IdempotencyTTL)
		return err
	})

	if errors.Is(err, ErrIdempotencyConflict) {
		span.SetStatus(codes.Error, "idempotency conflict")
		zerolog.Ctx(ctx).Warn().Str("key", key).Msg("idempotency key points at a missing session")
		return nil, false, err
	}
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost the race for key: serve the winner's session.
		rec, gerr := repo.GetIdempotency(ctx, s.DB, key, now)
		if gerr != nil {
			return nil, false, ErrIdempotencyConflict
		}
		if sess, gerr = repo.GetSession(ctx, s.DB, rec.SessionID); gerr != nil {
			return nil, false, ErrIdempotencyConflict
		}
		return sess, true, nil
	}
	if err != nil {
		s.storageFailure(ctx, span, err, "idempotent insert failed")
		return nil, false, err
	}
	if !replayed {
		observability.SessionIngested(deref(sess.Device))
	}
	return sess, replayed, nil
}

func (s *AnalyticsService) storageFailure(ctx context.Context, span trace.Span, err error, msg string) {
	observability.IngestFailed(observability.ReasonStorage)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
}

func newSession(req IngestRequest, loc geo.Location, now time.Time) *domain.Session {
	return &domain.Session{
		Path:      req.Path,
		Referrer:  req.Referrer,
		Browser:   req.Browser,
		OS:        req.OS,
		Device:    req.Device,
		Screen:    req.Screen,
		Language:  req.Language,
		City:      loc.City,
		Country:   loc.Country,
		Region:    loc.Region,
		Flag:      loc.Flag,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		CreatedAt: now.UTC(),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// OS counts sessions per operating system.
func (s *AnalyticsService) OS(ctx context.Context) ([]domain.GroupCount, error) {
	return s.groupBy(ctx, domain.DimensionOS)
}

// Browsers counts sessions per browser.
func (s *AnalyticsService) Browsers(ctx context.Context) ([]domain.GroupCount, error) {
	return s.groupBy(ctx, domain.DimensionBrowser)
}

// Devices counts sessions per device class, title-cased for display.
func (s *AnalyticsService) Devices(ctx context.Context) ([]domain.GroupCount, error) {
	rows, err := s.groupBy(ctx, domain.DimensionDevice)
	if err != nil {
		return nil, err
	}
	title := cases.Title(language.English)
	for i := range rows {
		rows[i].Value = title.String(rows[i].Value)
	}
	return rows, nil
}

// Referrers counts sessions per referrer; sessions without one are "direct".
func (s *AnalyticsService) Referrers(ctx context.Context) ([]domain.GroupCount, error) {
	return s.groupBy(ctx, domain.DimensionReferrer)
}

// Paths counts sessions per visited path.
func (s *AnalyticsService) Paths(ctx context.Context) ([]domain.GroupCount, error) {
	return s.groupBy(ctx, domain.DimensionPath)
}

// Countries counts sessions per country, excluding sessions without one.
// Percentages are relative to sessions with a known country.
func (s *AnalyticsService) Countries(ctx context.Context) ([]domain.GroupCount, error) {
	return s.groupBy(ctx, domain.DimensionCountry)
}

func (s *AnalyticsService) groupBy(ctx context.Context, dimension string) ([]domain.GroupCount, error) {
	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "GroupBy",
		trace.WithAttributes(attribute.String("analytics.dimension", dimension)),
	)
	defer span.End()

	rows, err := repo.CountSessionsBy(ctx, s.DB, dimension)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("dimension", dimension).Msg("aggregation failed")
		return nil, err
	}
	return rows, nil
}

// TotalSessions returns the number of stored sessions.
func (s *AnalyticsService) TotalSessions(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "TotalSessions")
	defer span.End()
	return repo.CountSessions(ctx, s.DB)
}

// Visits returns one point per calendar day (in the service's Location) that
// has at least one session, oldest first. days > 0 limits the series to the
// trailing window ending today; 0 returns all time.
func (s *AnalyticsService) Visits(ctx context.Context, days int) ([]domain.VisitPoint, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}
	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "Visits",
		trace.WithAttributes(attribute.Int("analytics.days", days)),
	)
	defer span.End()

	loc := s.location()
	var since time.Time
	if days > 0 {
		today := s.now().In(loc)
		since = time.Date(today.Year(), today.Month(), today.Day()-(days-1), 0, 0, 0, 0, loc)
	}

	buckets, err := repo.SessionBuckets(ctx, s.DB, since)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("visit series failed")
		return nil, err
	}

	out := []domain.VisitPoint{}
	for _, b := range buckets {
		day := b.Start.In(loc).Format(time.DateOnly)
		if n := len(out); n > 0 && out[n-1].Date == day {
			out[n-1].Visits += b.Count
			continue
		}
		out = append(out, domain.VisitPoint{Date: day, Visits: b.Count})
	}
	return out, nil
}

// Dashboard runs every aggregation. Each query reads independently; the
// bundle is not a point-in-time snapshot.
func (s *AnalyticsService) Dashboard(ctx context.Context, days int) (*Dashboard, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}
	ctx, span := otel.Tracer(analyticsTracer).Start(ctx, "Dashboard")
	defer span.End()

	var (
		d   Dashboard
		err error
	)
	if d.Total, err = s.TotalSessions(ctx); err != nil {
		return nil, err
	}
	groups := []struct {
		dst *[]domain.GroupCount
		fn  func(context.Context) ([]domain.GroupCount, error)
	}{
		{&d.OS, s.OS},
		{&d.Browsers, s.Browsers},
		{&d.Devices, s.Devices},
		{&d.Referrers, s.Referrers},
		{&d.Paths, s.Paths},
		{&d.Countries, s.Countries},
	}
	for _, g := range groups {
		if *g.dst, err = g.fn(ctx); err != nil {
			return nil, err
		}
	}
	if d.Visits, err = s.Visits(ctx, days); err != nil {
		return nil, err
	}
	return &d, nil
}
