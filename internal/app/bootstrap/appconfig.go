// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// RACI REST backend
	BackendBaseURL   string        // e.g. https://raci.example.com/api
	BackendTimeout   time.Duration // per call; default 15s
	BackendRateLimit int           // requests per second across all sessions; 0 disables
	BackendRateBurst int

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey         string        // Secret key for signing session cookies (must be strong in production)
	SessionName        string        // Cookie name for sessions (default: raciconsole-session)
	SessionDomain      string        // Cookie domain (blank means current host)
	SessionMaxAge      time.Duration // cookie lifetime
	SessionInactiveTTL time.Duration // console sessions idle this long are closed

	// SealKey derives the keys that seal tokens and handoff values at rest.
	SealKey string

	// Views
	NotifySuccessTTL    time.Duration // how long success notifications stay
	ViewIdleTTL         time.Duration // idle views are torn down after this
	ViewCleanupInterval time.Duration

	// HandoffTTL bounds values passed between auth steps.
	HandoffTTL time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Login rate limits
	LoginRateIPPerMin     int
	LoginRateEmailPer5Min int
}
