// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, visitor pseudonymization, logging, panic
// recovery, metrics, CORS, security headers, idempotency, rate limiting and
// the optional static site with server-side page view capture.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → visitor → logging → recovery)
//   - Raw client IPs never leave the visitor middleware
//   - All dependencies injected through Deps
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-blog-analytics/docs" // registers the OpenAPI document
	"github.com/tbourn/go-blog-analytics/internal/config"
	"github.com/tbourn/go-blog-analytics/internal/http/handlers"
	"github.com/tbourn/go-blog-analytics/internal/http/middleware"
	"github.com/tbourn/go-blog-analytics/internal/repo"
)

// siteCSP applies to pages served from SITE_DIR.
const siteCSP = "default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// Deps carries what RegisterRoutes needs beyond configuration.
type Deps struct {
	// DB backs the Idempotency-Key lookup.
	DB *gorm.DB

	Analytics handlers.AnalyticsService
	Posts     handlers.PostStatsService

	// Hasher pseudonymizes the client IP into the visitor id.
	Hasher middleware.VisitorHasher

	// PageViews receives navigations of the static site. Nil disables capture.
	PageViews middleware.PageViewSink
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Visitor: hash the client IP once
//  4. Logger (+ optional redacted header dump)
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. CORS, security headers, gzip
//  9. Page view capture (static site only)
//
// The per-visitor rate limiter guards the API group only, so static assets
// do not consume tokens; the likes routes carry a second, stricter limiter.
// The Idempotency-Key validator is mounted on the ingest route alone, ahead
// of its limiter, so a known key exempts only retries of that ingest.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	if deps.Hasher != nil {
		r.Use(middleware.Visitor(deps.Hasher))
	}
	r.Use(middleware.Logger())
	if cfg.LogHeaders {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	}
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	sec := middleware.SecurityOptions{
		EnableHSTS:     cfg.Security.EnableHSTS,
		HSTSMaxAge:     cfg.Security.HSTSMaxAge,
		EnablePolicy:   true,
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}
	if cfg.Tracker.SiteDir != "" {
		sec.ContentSecurityPolicy = siteCSP
	}
	r.Use(middleware.SecurityHeaders(sec))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	if cfg.Tracker.SiteDir != "" && deps.PageViews != nil {
		skip := ""
		if apiBase != "/" {
			skip = apiBase + "/"
		}
		r.Use(middleware.PageViews(deps.PageViews, skip))
	}

	// Fallbacks
	notFound := func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	}
	if cfg.Tracker.SiteDir != "" {
		r.NoRoute(staticSite(cfg.Tracker.SiteDir, apiBase, notFound))
	} else {
		r.NoRoute(notFound)
	}
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Analytics, deps.Posts)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitor())
	likesRL := middleware.NewRateLimiter(cfg.LikesRateRPS, cfg.LikesRateBurst, middleware.KeyByVisitor())

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(deps.DB))

	api := groupWithPrefix(r, apiBase)
	api.POST("/analytics", idem, rl.Handler(), h.Ingest)

	limited := api.Group("", rl.Handler())
	{
		posts := limited.Group("/posts/:slug")
		posts.GET("", h.GetPost)
		posts.POST("/views", h.IncrementViews)
		posts.POST("/likes", likesRL.Handler(), h.IncrementLikes)
		posts.GET("/likes", likesRL.Handler(), h.GetLikes)

		stats := limited.Group("/stats")
		if cfg.DashboardJWTSecret != "" {
			stats.Use(middleware.BearerAuth([]byte(cfg.DashboardJWTSecret)))
		}
		stats.GET("/os", h.StatsOS)
		stats.GET("/browsers", h.StatsBrowsers)
		stats.GET("/devices", h.StatsDevices)
		stats.GET("/referrers", h.StatsReferrers)
		stats.GET("/paths", h.StatsPaths)
		stats.GET("/countries", h.StatsCountries)
		stats.GET("/visits", h.StatsVisits)
		stats.GET("/total", h.StatsTotal)
		stats.GET("/dashboard", h.StatsDashboard)
	}
}

// idempotencyLookup reports keys that already produced a stored session.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, key, now)
		if err != nil || rec == nil {
			return false, nil
		}
		return true, nil
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", handlers.HeaderIdempotentReplay},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header, so beacons and health checks see it.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// staticSite serves files from dir for GET and HEAD requests outside the API
// and falls back to notFound otherwise.
func staticSite(dir, apiBase string, notFound gin.HandlerFunc) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		m := c.Request.Method
		if (m != http.MethodGet && m != http.MethodHead) || underPrefix(c.Request.URL.Path, apiBase) {
			notFound(c)
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}

func underPrefix(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
