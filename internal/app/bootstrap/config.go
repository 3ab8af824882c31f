// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the console.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: backend_base_url, mongo_uri, etc.
//   - Environment variables: RACICONSOLE_BACKEND_BASE_URL, RACICONSOLE_MONGO_URI, etc.
//   - Command-line flags: --backend_base_url, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "backend_base_url", Default: "http://localhost:5000/api", Desc: "Base URL of the RACI REST API"},
	{Name: "backend_timeout", Default: "15s", Desc: "Timeout for each backend call"},
	{Name: "backend_rate_limit", Default: 50, Desc: "Backend requests per second across all sessions (0 disables)"},
	{Name: "backend_rate_burst", Default: 20, Desc: "Backend request burst"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "raci_console", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "raciconsole-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},
	{Name: "session_inactive_ttl", Default: "2h", Desc: "Close console sessions idle this long"},
	{Name: "seal_key", Default: "dev-only-seal-key-change-me-0123456789ABCDEF", Desc: "Secret for sealing tokens at rest (32+ chars)"},

	{Name: "notify_success_ttl", Default: "3s", Desc: "How long success notifications stay visible"},
	{Name: "view_idle_ttl", Default: "30m", Desc: "Tear down resource views idle this long"},
	{Name: "view_cleanup_interval", Default: "1m", Desc: "How often idle views are swept"},
	{Name: "handoff_ttl", Default: "15m", Desc: "Lifetime of registration and password-reset handoffs"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "login_rate_ip_per_min", Default: 10, Desc: "Login attempts allowed per IP per minute"},
	{Name: "login_rate_email_per_5min", Default: 5, Desc: "Login attempts allowed per email per 5 minutes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, RACICONSOLE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RACICONSOLE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		BackendBaseURL:   appValues.String("backend_base_url"),
		BackendTimeout:   appValues.Duration("backend_timeout", 15*time.Second),
		BackendRateLimit: appValues.Int("backend_rate_limit"),
		BackendRateBurst: appValues.Int("backend_rate_burst"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:         appValues.String("session_key"),
		SessionName:        appValues.String("session_name"),
		SessionDomain:      appValues.String("session_domain"),
		SessionMaxAge:      appValues.Duration("session_max_age", 24*time.Hour),
		SessionInactiveTTL: appValues.Duration("session_inactive_ttl", 2*time.Hour),
		SealKey:            appValues.String("seal_key"),

		NotifySuccessTTL:    appValues.Duration("notify_success_ttl", 3*time.Second),
		ViewIdleTTL:         appValues.Duration("view_idle_ttl", 30*time.Minute),
		ViewCleanupInterval: appValues.Duration("view_cleanup_interval", time.Minute),
		HandoffTTL:          appValues.Duration("handoff_ttl", 15*time.Minute),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateIPPerMin:     appValues.Int("login_rate_ip_per_min"),
		LoginRateEmailPer5Min: appValues.Int("login_rate_email_per_5min"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI and the backend URL to catch configuration
// errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateBackendURL(appCfg.BackendBaseURL); err != nil {
		logger.Error("invalid backend URL", zap.Error(err))
		return err
	}
	if len(appCfg.SealKey) < 32 {
		return fmt.Errorf("seal_key must be at least 32 characters")
	}
	if appCfg.LoginRateIPPerMin < 1 || appCfg.LoginRateEmailPer5Min < 1 {
		return fmt.Errorf("login rate limits must be positive")
	}
	return nil
}

func validateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend_base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_base_url must be an http(s) URL, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_base_url has no host: %q", raw)
	}
	return nil
}
