package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// MaxRequestBodySize caps inbound payloads; webhook deliveries and quiz
// submissions are small JSON documents.
const MaxRequestBodySize = 1 << 20

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Password policy
const MinPasswordLength = 8

// Rate limits
const (
	WebhookRateLimitPerMin = 120
	LoginRateLimitPerMin   = 5
	ResendLinkLimitPerHour = 3
)
