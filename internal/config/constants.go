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
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Connection tokens expire one hour after issuance, fixed policy.
const ConnectionTokenTTL = time.Hour

// Expired and redeemed tokens stay around this long for diagnostics
// before the cleanup job deletes them.
const TokenRetentionPeriod = 24 * time.Hour

// Admin console session lifetime
const AdminSessionTTL = 24 * time.Hour

// Per-IP rate limit on unauthenticated mobile endpoints
const (
	MobileRateLimitPerMin = 30
	MobileRateLimitWindow = time.Minute
)

// Outbound geocoding request timeout
const GeocodeRequestTimeout = 5 * time.Second
