// Analytics HTTP handlers.
//
// This file exposes the ingestion endpoint and the read-only aggregation
// endpoints behind the dashboard:
//   - POST /analytics                  (record one page view)
//   - GET  /stats/{os,browsers,devices,referrers,paths,countries}
//   - GET  /stats/visits?days=N
//   - GET  /stats/total
//   - GET  /stats/dashboard?days=N
//
// Handlers are transport-thin: they bind input, call the services, and map
// service errors to the error envelope.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-analytics/internal/domain"
	"github.com/tbourn/go-blog-analytics/internal/geo"
	"github.com/tbourn/go-blog-analytics/internal/http/middleware"
	"github.com/tbourn/go-blog-analytics/internal/services"
	"github.com/tbourn/go-blog-analytics/internal/utils"
	"github.com/tbourn/go-blog-analytics/internal/validation"
)

//
// Service contracts (context-aware)
//

// AnalyticsService records sessions and answers aggregate queries.
type AnalyticsService interface {
	IngestOnce(ctx context.Context, key string, req services.IngestRequest, loc geo.Location, now time.Time) (*domain.Session, bool, error)
	OS(ctx context.Context) ([]domain.GroupCount, error)
	Browsers(ctx context.Context) ([]domain.GroupCount, error)
	Devices(ctx context.Context) ([]domain.GroupCount, error)
	Referrers(ctx context.Context) ([]domain.GroupCount, error)
	Paths(ctx context.Context) ([]domain.GroupCount, error)
	Countries(ctx context.Context) ([]domain.GroupCount, error)
	Visits(ctx context.Context, days int) ([]domain.VisitPoint, error)
	TotalSessions(ctx context.Context) (int64, error)
	Dashboard(ctx context.Context, days int) (*services.Dashboard, error)
}

// PostStatsService serves per-post view and like counters.
type PostStatsService interface {
	IncrementViews(ctx context.Context, slug string) (*domain.PostStats, error)
	IncrementLikes(ctx context.Context, slug, userHash string) (*services.LikesResult, error)
	Likes(ctx context.Context, slug, userHash string) (*services.LikesResult, error)
	Get(ctx context.Context, slug string) (*services.PostSummary, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on service interfaces so
// tests can substitute stubs.
type Handlers struct {
	analytics AnalyticsService
	posts     PostStatsService
	now       func() time.Time
}

// New constructs Handlers bound to the given services.
func New(analytics AnalyticsService, posts PostStatsService) *Handlers {
	return &Handlers{analytics: analytics, posts: posts, now: time.Now}
}

// HeaderIdempotentReplay marks a response served from an earlier request
// with the same Idempotency-Key.
const HeaderIdempotentReplay = "Idempotent-Replayed"

const msgIngestFailed = "Error inserting session"

// Ingest godoc
// @ID          ingestSession
// @Summary     Record a page view
// @Description Stores one session. Location fields come from the edge geolocation headers.
// @Description With an Idempotency-Key, a retry within the TTL returns the original session (200) instead of inserting again.
// @Tags        Analytics
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                  false "Client-generated key for safe retries" example(8c5b2a3e-1f0d-4a8e-9b51-0a6c4f1d2e73)
// @Param       body             body    services.IngestRequest  true  "Page view"
//
// @Success     201  {object} domain.Session
// @Success     200  {object} domain.Session "Replayed"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     409  {object} handlers.ErrorResponse "Idempotency key in use"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /analytics [post]
func (h *Handlers) Ingest(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, ErrCodeValidation, msgIngestFailed, err.Error())
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	sess, replayed, err := h.analytics.IngestOnce(c.Request.Context(), key, req, geo.FromHeaders(c.Request.Header), h.now())
	if err != nil {
		var ve *validation.RequestValidationError
		switch {
		case errors.As(err, &ve):
			failWith(c, http.StatusBadRequest, ErrCodeValidation, msgIngestFailed, ve.Fields)
		case errors.Is(err, services.ErrIdempotencyConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, "idempotency key in use")
		default:
			failWith(c, http.StatusInternalServerError, ErrCodeInternal, msgIngestFailed, err.Error())
		}
		return
	}

	if replayed {
		c.Header(HeaderIdempotentReplay, "true")
		ok(c, http.StatusOK, sess)
		return
	}
	ok(c, http.StatusCreated, sess)
}

func (h *Handlers) groupCounts(c *gin.Context, fn func(context.Context) ([]domain.GroupCount, error)) {
	rows, err := fn(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "aggregation failed")
		return
	}
	if rows == nil {
		rows = []domain.GroupCount{}
	}
	ok(c, http.StatusOK, rows)
}

// StatsOS godoc
// @ID          statsOS
// @Summary     Sessions per operating system
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/os [get]
func (h *Handlers) StatsOS(c *gin.Context) { h.groupCounts(c, h.analytics.OS) }

// StatsBrowsers godoc
// @ID          statsBrowsers
// @Summary     Sessions per browser
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/browsers [get]
func (h *Handlers) StatsBrowsers(c *gin.Context) { h.groupCounts(c, h.analytics.Browsers) }

// StatsDevices godoc
// @ID          statsDevices
// @Summary     Sessions per device class
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/devices [get]
func (h *Handlers) StatsDevices(c *gin.Context) { h.groupCounts(c, h.analytics.Devices) }

// StatsReferrers godoc
// @ID          statsReferrers
// @Summary     Sessions per referrer ("direct" when none)
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/referrers [get]
func (h *Handlers) StatsReferrers(c *gin.Context) { h.groupCounts(c, h.analytics.Referrers) }

// StatsPaths godoc
// @ID          statsPaths
// @Summary     Sessions per path
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/paths [get]
func (h *Handlers) StatsPaths(c *gin.Context) { h.groupCounts(c, h.analytics.Paths) }

// StatsCountries godoc
// @ID          statsCountries
// @Summary     Sessions per country with flag
// @Description Sessions without a country are excluded, including from the percentage base.
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.GroupCount
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/countries [get]
func (h *Handlers) StatsCountries(c *gin.Context) { h.groupCounts(c, h.analytics.Countries) }

// daysParam reads ?days=; absent or empty means all time and garbage is
// rejected by the service as a negative window.
func daysParam(c *gin.Context) int {
	return utils.IntParam(c.Query("days"), 0, -1)
}

// StatsVisits godoc
// @ID          statsVisits
// @Summary     Daily visit series
// @Description One point per calendar day (analytics time zone) with at least one session, oldest first.
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Param       days  query  int  false  "Trailing window in days; 0 or absent for all time"  minimum(0) example(30)
// @Success     200  {array}  domain.VisitPoint
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/visits [get]
func (h *Handlers) StatsVisits(c *gin.Context) {
	pts, err := h.analytics.Visits(c.Request.Context(), daysParam(c))
	if err != nil {
		h.statsError(c, err)
		return
	}
	ok(c, http.StatusOK, pts)
}

// TotalResponse is the body of GET /stats/total.
type TotalResponse struct {
	Total int64 `json:"total" example:"1024"`
}

// StatsTotal godoc
// @ID          statsTotal
// @Summary     Total number of sessions
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} handlers.TotalResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/total [get]
func (h *Handlers) StatsTotal(c *gin.Context) {
	n, err := h.analytics.TotalSessions(c.Request.Context())
	if err != nil {
		h.statsError(c, err)
		return
	}
	ok(c, http.StatusOK, TotalResponse{Total: n})
}

// StatsDashboard godoc
// @ID          statsDashboard
// @Summary     Every aggregate in one response
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Param       days  query  int  false  "Trailing window for the visit series"  minimum(0) example(30)
// @Success     200  {object} services.Dashboard
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /stats/dashboard [get]
func (h *Handlers) StatsDashboard(c *gin.Context) {
	d, err := h.analytics.Dashboard(c.Request.Context(), daysParam(c))
	if err != nil {
		h.statsError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

func (h *Handlers) statsError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidDays) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDays, "days must be a non-negative integer")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "aggregation failed")
}
