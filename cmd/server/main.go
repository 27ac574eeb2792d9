// Package main starts the blog analytics server.
//
// Startup order:
//
//  1. Configuration from the environment (.env is loaded when present)
//  2. Logging and OpenTelemetry
//  3. SQLite sessions database (migrated on boot)
//  4. Post stats store selected by STATS_BACKEND (sql, redis or badger)
//  5. Page view tracker, delivering in-process or to TRACKER_ENDPOINT
//  6. HTTP server with graceful shutdown on SIGINT and SIGTERM
//
// @title                      Blog Analytics API
// @version                    1.0
// @description                Page view ingestion, dashboard aggregates and per-post view/like counters.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                HS256 JWT issued by the blog's auth service: "Bearer <token>"
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-analytics/docs"
	"github.com/tbourn/go-blog-analytics/internal/config"
	"github.com/tbourn/go-blog-analytics/internal/geo"
	httpapi "github.com/tbourn/go-blog-analytics/internal/http"
	"github.com/tbourn/go-blog-analytics/internal/kv"
	"github.com/tbourn/go-blog-analytics/internal/observability"
	"github.com/tbourn/go-blog-analytics/internal/repo"
	"github.com/tbourn/go-blog-analytics/internal/services"
	"github.com/tbourn/go-blog-analytics/internal/sysutil"
	"github.com/tbourn/go-blog-analytics/internal/tracker"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	loc, err := time.LoadLocation(cfg.Analytics.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Analytics.TimeZone).Msg("load analytics time zone")
	}
	if cfg.Analytics.IPHashSalt == "" {
		log.Warn().Msg("IP_HASH_SALT is empty; visitor hashes are guessable")
	}

	store, closeStore, err := openStatsStore(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Stats.Backend).Msg("open post stats store")
	}

	analytics := &services.AnalyticsService{
		DB:             db,
		Location:       loc,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	posts := &services.PostStatsService{
		Store:           store,
		LikesPerUserMax: int64(cfg.Stats.LikesPerUserMax),
	}

	var pageViews *tracker.Tracker
	if cfg.Tracker.SiteDir != "" {
		pageViews = tracker.New(pageViewTransport(cfg, analytics), cfg.Tracker.QueueSize)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	deps := httpapi.Deps{
		DB:        db,
		Analytics: analytics,
		Posts:     posts,
		Hasher:    services.NewUserHasher(cfg.Analytics.IPHashSalt),
	}
	if pageViews != nil {
		deps.PageViews = pageViews
	}
	httpapi.RegisterRoutes(r, deps, cfg)

	go purgeIdempotency(ctx, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("stats_backend", cfg.Stats.Backend).
			Str("site_dir", cfg.Tracker.SiteDir).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if pageViews != nil {
		if err := pageViews.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracker drain incomplete")
		}
	}
	if closeStore != nil {
		if err := closeStore.Close(); err != nil {
			log.Error().Err(err).Msg("close post stats store")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	// Services log through zerolog.Ctx; outside a request that is the global logger.
	zerolog.DefaultContextLogger = &log.Logger
}

// openStatsStore returns the configured post stats store and, for backends
// that own a connection, the closer to release it.
func openStatsStore(ctx context.Context, cfg config.Config, db *gorm.DB) (services.PostStatsStore, io.Closer, error) {
	switch cfg.Stats.Backend {
	case config.StatsBackendRedis:
		rdb, err := kv.DialRedis(ctx, cfg.Stats.RedisAddr, cfg.Stats.RedisPassword, cfg.Stats.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewRedisStore(rdb), rdb, nil
	case config.StatsBackendBadger:
		bdb, err := kv.OpenBadger(cfg.Stats.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewBadgerStore(bdb), bdb, nil
	default:
		return repo.NewPostStatsStore(db), nil, nil
	}
}

// pageViewTransport posts to TRACKER_ENDPOINT when set, otherwise records
// page views directly through the analytics service.
func pageViewTransport(cfg config.Config, analytics *services.AnalyticsService) tracker.Transport {
	if cfg.Tracker.Endpoint != "" {
		return tracker.NewHTTPTransport(cfg.Tracker.Endpoint)
	}
	return tracker.TransportFunc(func(ctx context.Context, p tracker.Payload) error {
		req := services.IngestRequest{
			Path:     p.Path,
			Referrer: p.Referrer,
			Browser:  p.Browser,
			OS:       p.OS,
			Device:   p.Device,
			Screen:   p.Screen,
			Language: p.Language,
		}
		_, _, err := analytics.IngestOnce(ctx, p.ID, req, geo.FromHeaders(p.Header), time.Now())
		return err
	})
}

func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged expired idempotency keys")
			}
		}
	}
}
