// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/store/handoff"
	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/app/system/auditlog"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/ratelimit"
	"github.com/dalemusser/raciconsole/internal/app/system/sealing"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"github.com/dalemusser/raciconsole/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	sessionCleanupInterval = time.Minute
	handoffCleanupInterval = 5 * time.Minute
)

// console is everything Startup builds and the handlers share.
type console struct {
	client     *backend.Client
	resolver   *sessionctx.Resolver
	sessions   *sessions.Store
	handoffs   *handoff.Store
	audit      *auditlog.Logger
	registry   *resourcesession.Registry
	sessionMgr *auth.SessionManager
	limiter    *ratelimit.LoginLimiter

	cancelViews context.CancelFunc
	workers     []stopper
}

type stopper interface{ Stop() }

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the backend client, the stores, the view registry and the session
// manager, and starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.console == nil {
		return fmt.Errorf("startup: database dependencies not connected")
	}
	timeouts.Configure(timeouts.Config{Backend: appCfg.BackendTimeout})

	c, err := newConsole(coreCfg, appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.console = *c
	deps.console.startWorkers(appCfg, logger)
	return nil
}

// newConsole wires the shared components without starting any goroutines.
func newConsole(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*console, error) {
	tokenSealer, err := sealing.New([]byte(appCfg.SealKey), "token")
	if err != nil {
		return nil, fmt.Errorf("token sealer: %w", err)
	}
	handoffSealer, err := sealing.New([]byte(appCfg.SealKey), "handoff")
	if err != nil {
		return nil, fmt.Errorf("handoff sealer: %w", err)
	}

	opts := []backend.Option{
		backend.WithTimeout(appCfg.BackendTimeout),
		backend.WithLogger(logger),
	}
	if appCfg.BackendRateLimit > 0 {
		opts = append(opts, backend.WithRateLimit(float64(appCfg.BackendRateLimit), appCfg.BackendRateBurst))
	}
	client, err := backend.New(appCfg.BackendBaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	c := &console{
		client:   client,
		resolver: sessionctx.NewResolver(client, logger),
		sessions: sessions.New(deps.MongoDatabase, tokenSealer),
		handoffs: handoff.New(deps.MongoDatabase, handoffSealer),
		audit: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
		limiter: ratelimit.NewLoginLimiterWithConfig(
			appCfg.LoginRateIPPerMin, time.Minute,
			appCfg.LoginRateEmailPer5Min, 5*time.Minute,
		),
	}

	viewCtx, cancel := context.WithCancel(context.Background())
	c.cancelViews = cancel
	c.registry = resourcesession.NewRegistry(viewCtx, resourcesession.RegistryConfig{
		Client:     client,
		Log:        logger,
		Timeout:    appCfg.BackendTimeout,
		SuccessTTL: appCfg.NotifySuccessTTL,
		ObserverFor: func(sess *sessionctx.Session) mutation.Observer {
			return c.audit.MutationObserver(sess.Identity)
		},
	})

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sm, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		cancel()
		c.limiter.Stop()
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sm.SetLoader(auth.ConsoleSessions{Sessions: c.sessions, Resolver: c.resolver})
	sm.SetEnder(auth.ConsoleSessions{Sessions: c.sessions, Resolver: c.resolver})
	sm.OnEnd(func(sessionID string) { c.registry.CloseSession(sessionID) })
	sm.OnReject(c.auditRejection)
	c.sessionMgr = sm

	return c, nil
}

// auditRejection records a session the backend stopped accepting.
func (c *console) auditRejection(r *http.Request, sessionID string) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	rec, err := c.sessions.GetByID(ctx, oid)
	if err != nil {
		c.audit.SessionRejected(ctx, r, "", "")
		return
	}
	c.audit.SessionRejected(ctx, r, rec.UserID, rec.CompanyID)
}

func (c *console) startWorkers(appCfg AppConfig, logger *zap.Logger) {
	sc := workers.NewSessionCleanup(c.sessions, func(sessionID string) {
		c.registry.CloseSession(sessionID)
		c.resolver.Forget(sessionID)
	}, logger, sessionCleanupInterval, appCfg.SessionInactiveTTL)
	vc := workers.NewViewCleanup(c.registry, logger, appCfg.ViewCleanupInterval, appCfg.ViewIdleTTL)
	hc := workers.NewHandoffCleanup(c.handoffs, logger, handoffCleanupInterval)

	for _, w := range []interface {
		Start()
		Stop()
	}{sc, vc, hc} {
		w.Start()
		c.workers = append(c.workers, w)
	}
}

// stop ends the workers and every live view.
func (c *console) stop(logger *zap.Logger) {
	for _, w := range c.workers {
		w.Stop()
	}
	c.workers = nil
	if c.registry != nil {
		n := c.registry.CloseAll()
		logger.Info("closed live views", zap.Int("views", n))
	}
	if c.cancelViews != nil {
		c.cancelViews()
	}
	if c.limiter != nil {
		c.limiter.Stop()
	}
}
