// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/app/system/auditlog"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/navigation"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /logout. The console session is closed, its
// cached identity forgotten and its views torn down by the session
// manager's end hooks.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(ctx, r, u.ID, u.CompanyID)
	}
	h.SessionMgr.End(ctx, w, r, sessions.EndLogout)

	dest := navigation.AfterLogout.Fallback

	// HTMX handling: use HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		uierrors.WriteJSON(w, http.StatusOK, map[string]string{"redirect": dest})
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
