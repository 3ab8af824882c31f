// internal/app/features/resources/handler.go
package resources

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultWait bounds how long a ?wait=1 mutation request waits for the
// backend before answering 202 anyway.
const DefaultWait = 10 * time.Second

// Views is the part of the view registry the handlers use.
type Views interface {
	Get(sessionID string, sess *sessionctx.Session, rt models.ResourceType) (*resourcesession.Controller, bool)
}

// Handler serves every resource type through one set of handlers; the
// {resource} URL segment selects the descriptor.
//
// It is constructed once at startup in bootstrap with the shared view
// registry.
type Handler struct {
	Views      Views
	SessionMgr *auth.SessionManager // optional; ends sessions the backend rejects
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
	Wait       time.Duration
}

// NewHandler constructs a resources Handler.
func NewHandler(views Views, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Views:      views,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
		Wait:       DefaultWait,
	}
}

// resourceType resolves the {resource} segment or answers 404.
func (h *Handler) resourceType(w http.ResponseWriter, r *http.Request) (models.ResourceType, bool) {
	rt, ok := models.LookupResourceType(chi.URLParam(r, "resource"))
	if !ok {
		uierrors.Error(w, http.StatusNotFound, "Unknown resource.")
		return models.ResourceType{}, false
	}
	return rt, true
}

// view returns the session's controller for the resource, creating it on
// first use. Callers have already checked the role.
func (h *Handler) view(w http.ResponseWriter, r *http.Request, rt models.ResourceType) (*resourcesession.Controller, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.Session == nil || u.SessionID == "" {
		uierrors.RenderUnauthorized(w, r)
		return nil, false
	}
	c, created := h.Views.Get(u.SessionID, u.Session, rt)
	if created {
		h.Log.Debug("view created",
			zap.String("session_id", u.SessionID),
			zap.String("resource", rt.Name))
	}
	return c, true
}

// ensureLoaded fetches the collection on first use. Later requests serve
// the cached collection until an explicit reload.
func (h *Handler) ensureLoaded(ctx context.Context, c *resourcesession.Controller, p backend.ListParams, force bool) error {
	st := c.State()
	if st.Loaded && !force {
		return nil
	}
	return c.Load(ctx, p)
}

// unauthenticated ends the console session and sends the caller to sign in.
func (h *Handler) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if h.SessionMgr != nil {
		h.SessionMgr.Reject(r.Context(), w, r)
	}
	uierrors.RenderUnauthorized(w, r)
}

// controllerError answers errors from the controller itself. It reports
// whether err was handled.
func (h *Handler) controllerError(w http.ResponseWriter, r *http.Request, rt models.ResourceType, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, backend.ErrUnauthenticated):
		h.unauthenticated(w, r)
	case errors.Is(err, resourcesession.ErrForbidden):
		uierrors.RenderForbidden(w, r, "You can't change "+strings.ToLower(rt.Label)+".")
	case errors.Is(err, resourcesession.ErrClosed):
		uierrors.Error(w, http.StatusConflict, "This view was closed. Please reload.")
	default:
		return false
	}
	return true
}
