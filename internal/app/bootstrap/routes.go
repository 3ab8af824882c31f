// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	auditlogfeature "github.com/dalemusser/raciconsole/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/raciconsole/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/raciconsole/internal/app/features/errors"
	healthfeature "github.com/dalemusser/raciconsole/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/raciconsole/internal/app/features/heartbeat"
	loginfeature "github.com/dalemusser/raciconsole/internal/app/features/login"
	logoutfeature "github.com/dalemusser/raciconsole/internal/app/features/logout"
	meetingsfeature "github.com/dalemusser/raciconsole/internal/app/features/meetings"
	resourcesfeature "github.com/dalemusser/raciconsole/internal/app/features/resources"
	userinfofeature "github.com/dalemusser/raciconsole/internal/app/features/userinfo"
	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Everything the handlers share was built
// by Startup; this only mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	c := deps.console
	if c == nil || c.sessionMgr == nil {
		return nil, fmt.Errorf("build handler: startup did not complete")
	}
	return c.routes(deps, appCfg, logger), nil
}

func (c *console) routes(deps DBDeps, appCfg AppConfig, logger *zap.Logger) chi.Router {
	sm := c.sessionMgr
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health and metrics stay outside the session middleware.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.BackendBaseURL, c.registry, c.resolver, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		// Loads SessionUser into context if signed in, and ends sessions
		// the backend no longer accepts.
		r.Use(sm.LoadSessionUser)

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		})

		// Authentication
		loginHandler := loginfeature.NewHandler(c.client, c.resolver, c.sessions, c.handoffs, sm, c.limiter, c.audit, errLog, appCfg.HandoffTTL, logger)
		r.Mount("/login", loginfeature.Routes(loginHandler))
		r.Mount("/register", loginfeature.RegisterRoutes(loginHandler))
		r.Mount("/password", loginfeature.PasswordRoutes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sm, c.audit, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler, sm))

		// Page support
		userinfofeature.MountRoutes(r, userinfofeature.NewHandler())
		heartbeatfeature.MountRoutes(r, heartbeatfeature.NewHandler(c.registry, appCfg.SessionInactiveTTL, logger), sm)

		// Error pages
		r.Get("/forbidden", errorsHandler.Forbidden)

		dashboardHandler := dashboardfeature.NewHandler(c.registry, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sm))

		// Resource views
		resourcesHandler := resourcesfeature.NewHandler(c.registry, sm, errLog, logger)
		r.Mount("/r", resourcesfeature.Routes(resourcesHandler, sm))

		meetingsHandler := meetingsfeature.NewHandler(c.registry, sm, logger)
		r.Mount("/meetings", meetingsfeature.Routes(meetingsHandler, sm))

		auditHandler := auditlogfeature.NewHandler(audit.New(deps.MongoDatabase), errLog, logger)
		r.Mount("/audit", auditlogfeature.Routes(auditHandler, sm))
	})

	return r
}
