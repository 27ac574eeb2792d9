// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, the session database, post stats backends, analytics
// bucketing, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // ANALYTICS_TIMEZONE must resolve on hosts without zoneinfo
)

// Supported post stats backends.
const (
	StatsBackendSQL    = "sql"
	StatsBackendRedis  = "redis"
	StatsBackendBadger = "badger"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	Environment string  // OTEL_DEPLOYMENT_ENVIRONMENT (e.g. "production")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AnalyticsConfig controls session bucketing and visitor pseudonymization.
type AnalyticsConfig struct {
	TimeZone   string // ANALYTICS_TIMEZONE, IANA name used for the daily visit series
	IPHashSalt string // IP_HASH_SALT, key for the visitor hash
}

// StatsConfig selects and configures the post stats counter store.
type StatsConfig struct {
	Backend         string // STATS_BACKEND: sql|redis|badger
	LikesPerUserMax int    // LIKES_PER_USER_MAX
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BadgerPath      string
}

// TrackerConfig configures server-side page view capture.
type TrackerConfig struct {
	SiteDir   string // SITE_DIR, optional static site to serve and track
	QueueSize int    // TRACKER_QUEUE_SIZE
	Endpoint  string // TRACKER_ENDPOINT, remote ingestion URL; empty means in-process
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	TrustedProxies    []string      // CIDRs/IPs allowed to set X-Forwarded-For

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogHeaders     bool   // LOG_REQUEST_HEADERS, add a redacted header dump per request
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath string // SQLite path

	Analytics AnalyticsConfig
	Stats     StatsConfig
	Tracker   TrackerConfig

	// Rate limiting
	RateRPS        float64 // tokens per second (>= 0)
	RateBurst      int     // bucket size (>= 1)
	LikesRateRPS   float64
	LikesRateBurst int

	// Dashboard access; empty disables the bearer check.
	DashboardJWTSecret string

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		TrustedProxies:    splitCSV(getenv("TRUSTED_PROXIES", "")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogHeaders:     getbool("LOG_REQUEST_HEADERS", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		DBPath: getenv("DB_PATH", "analytics.db"),

		Analytics: AnalyticsConfig{
			TimeZone:   getenv("ANALYTICS_TIMEZONE", "America/New_York"),
			IPHashSalt: getenv("IP_HASH_SALT", ""),
		},
		Stats: StatsConfig{
			Backend:         strings.ToLower(strings.TrimSpace(getenv("STATS_BACKEND", StatsBackendSQL))),
			LikesPerUserMax: getint("LIKES_PER_USER_MAX", 50),
			RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:   getenv("REDIS_PASSWORD", ""),
			RedisDB:         getint("REDIS_DB", 0),
			BadgerPath:      getenv("BADGER_PATH", "data/poststats"),
		},
		Tracker: TrackerConfig{
			SiteDir:   getenv("SITE_DIR", ""),
			QueueSize: getint("TRACKER_QUEUE_SIZE", 256),
			Endpoint:  getenv("TRACKER_ENDPOINT", ""),
		},

		RateRPS:        getfloat("RATE_RPS", 10.0),
		RateBurst:      getint("RATE_BURST", 20),
		LikesRateRPS:   getfloat("LIKES_RATE_RPS", 2.0),
		LikesRateBurst: getint("LIKES_RATE_BURST", 10),

		DashboardJWTSecret: getenv("DASHBOARD_JWT_SECRET", ""),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-blog-analytics"),
			Environment: getenv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if _, err := time.LoadLocation(cfg.Analytics.TimeZone); err != nil {
		return cfg, errors.New("ANALYTICS_TIMEZONE must be a valid IANA time zone")
	}
	switch cfg.Stats.Backend {
	case StatsBackendSQL:
	case StatsBackendRedis:
		if strings.TrimSpace(cfg.Stats.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty when STATS_BACKEND=redis")
		}
	case StatsBackendBadger:
		if strings.TrimSpace(cfg.Stats.BadgerPath) == "" {
			return cfg, errors.New("BADGER_PATH must not be empty when STATS_BACKEND=badger")
		}
	default:
		return cfg, errors.New("STATS_BACKEND must be one of: sql, redis, badger")
	}
	if cfg.Stats.LikesPerUserMax < 1 {
		return cfg, errors.New("LIKES_PER_USER_MAX must be >= 1")
	}
	if cfg.Tracker.QueueSize < 1 {
		return cfg, errors.New("TRACKER_QUEUE_SIZE must be >= 1")
	}
	if cfg.RateRPS < 0 || cfg.LikesRateRPS < 0 {
		return cfg, errors.New("RATE_RPS and LIKES_RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 || cfg.LikesRateBurst < 1 {
		return cfg, errors.New("RATE_BURST and LIKES_RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
