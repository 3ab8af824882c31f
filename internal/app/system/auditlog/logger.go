// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: User Identifiers
//   - UserID / userID / user_id: the backend's id for the signed-in user
//   - Email / email: what the operator typed on the login or reset forms

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, password reset).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for record mutations made through the console.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.CompanyID != "" {
		fields = append(fields, zap.String("company_id", event.CompanyID))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", event.Resource), zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, id models.Identity) {
	e := authEvent(r, audit.EventLoginSuccess, true)
	e.UserID = id.ID
	e.Email = id.Email
	e.CompanyID = id.OrganizationRef
	e.Details = map[string]string{"role": id.Role}
	l.Log(ctx, e)
}

// LoginFailed logs a login the backend rejected.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventLoginFailed, false)
	e.Email = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login refused before reaching the backend.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	e := authEvent(r, audit.EventLoginFailedRateLimit, false)
	e.Email = email
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"limit_type": limitType}
	l.Log(ctx, e)
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, companyID string) {
	e := authEvent(r, audit.EventLogout, true)
	e.UserID = userID
	e.CompanyID = companyID
	l.Log(ctx, e)
}

// SessionRejected logs a console session whose token the backend refused.
func (l *Logger) SessionRejected(ctx context.Context, r *http.Request, userID, companyID string) {
	e := authEvent(r, audit.EventSessionRejected, false)
	e.UserID = userID
	e.CompanyID = companyID
	e.FailureReason = "token rejected by backend"
	l.Log(ctx, e)
}

// RegistrationSubmitted logs a registration forwarded to the backend.
func (l *Logger) RegistrationSubmitted(ctx context.Context, r *http.Request, email string, err error) {
	e := authEvent(r, audit.EventRegistrationSubmitted, err == nil)
	e.Email = email
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, e)
}

// PasswordResetRequested logs a forgot-password request.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventPasswordResetRequested, true)
	e.Email = email
	l.Log(ctx, e)
}

// OTPVerified logs a one-time code accepted by the backend.
func (l *Logger) OTPVerified(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventOTPVerified, true)
	e.Email = email
	l.Log(ctx, e)
}

// OTPFailed logs a one-time code the backend rejected.
func (l *Logger) OTPFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventOTPFailed, false)
	e.Email = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// PasswordReset logs a completed password reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventPasswordReset, true)
	e.Email = email
	l.Log(ctx, e)
}

// --- Admin Events ---

var mutationEvents = map[mutation.Kind]string{
	mutation.KindCreate: audit.EventRecordCreated,
	mutation.KindUpdate: audit.EventRecordUpdated,
	mutation.KindDelete: audit.EventRecordDeleted,
}

// Mutation logs the outcome of a create, update or delete made by actor.
func (l *Logger) Mutation(ctx context.Context, actor models.Identity, o mutation.Outcome) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: mutationEvents[o.Kind],
		UserID:    actor.ID,
		Email:     actor.Email,
		CompanyID: actor.OrganizationRef,
		Resource:  o.Resource,
		TargetID:  o.TargetID,
		Success:   o.State == mutation.StateCommitted,
		Details: map[string]string{
			"actor_role":  actor.Role,
			"duration_ms": intToString(int(o.Duration.Milliseconds())),
		},
	}
	if o.Record != nil && o.Record.ID != "" {
		e.TargetID = o.Record.ID
	}
	if o.Err != nil {
		e.FailureReason = o.Err.Error()
		var rej *mutation.RejectedError
		if errors.As(o.Err, &rej) && rej.Err != nil {
			e.FailureReason = rej.Err.Error()
		}
	}
	l.Log(ctx, e)
}

// MutationObserver returns an observer that audits actor's mutations.
func (l *Logger) MutationObserver(actor models.Identity) mutation.Observer {
	return mutation.ObserverFunc(func(ctx context.Context, o mutation.Outcome) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		l.Mutation(ctx, actor, o)
	})
}

// --- Helper functions ---

func intToString(i int) string {
	return strconv.Itoa(i)
}
