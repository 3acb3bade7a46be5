package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts. Dispatch requests walk every eligible session
// sequentially with pacing in between, so they get a much longer budget.
const (
	ServerRequestTimeout   = 60 * time.Second
	DispatchRequestTimeout = 15 * time.Minute
	ServerReadTimeout      = 15 * time.Second
	ServerIdleTimeout      = 120 * time.Second
	ServerShutdownTimeout  = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Session lifetimes
const (
	FacebookSessionTTL = 24 * time.Hour
	UserSessionTTL     = 24 * time.Hour
)

// Action request limits
const (
	CommentMaxLength   = 8000
	HistoryRetention   = 100
	DefaultMaxSessions = 10
	MaxSessionsCeiling = 50
)

// Default rate limiting
const DefaultRateLimitPerMin = 60
