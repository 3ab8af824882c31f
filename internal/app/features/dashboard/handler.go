// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

// organizationWait bounds how long the dashboard waits for a company lookup
// still in flight before answering with the fallback.
const organizationWait = 2 * time.Second

// ViewPeeker reports live views without creating them.
type ViewPeeker interface {
	Peek(sessionID, resource string) (*resourcesession.Controller, bool)
}

type Handler struct {
	Views ViewPeeker // optional
	Log   *zap.Logger
}

func NewHandler(views ViewPeeker, logger *zap.Logger) *Handler {
	return &Handler{
		Views: views,
		Log:   logger,
	}
}

// ServeDashboard answers with the signed-in identity, their company and
// the resources their role may open.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		auth.Unauthenticated(w, r)
		return
	}

	data := dashboardData{
		Title: titleFor(u.Role),
		User: models.Identity{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			Role:            u.Role,
			OrganizationRef: u.CompanyID,
		},
		Resources: h.tiles(u),
	}
	if u.Session != nil {
		ctx, cancel := context.WithTimeout(r.Context(), organizationWait)
		defer cancel()
		org := u.Session.Organization(ctx)
		if org.ID != "" || org.Name != "" {
			data.Organization = &org
		}
	}

	h.Log.Debug("dashboard served", zap.String("user_id", u.ID), zap.String("role", u.Role))
	uierrors.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) tiles(u *auth.SessionUser) []resourceTile {
	visible := models.VisibleTo(u.Role)
	out := make([]resourceTile, 0, len(visible))
	for _, rt := range visible {
		t := resourceTile{
			Name:      rt.Name,
			Label:     rt.Label,
			Href:      "/r/" + rt.Name,
			CanManage: rt.CanManage(u.Role),
		}
		if h.Views != nil && u.SessionID != "" {
			if c, live := h.Views.Peek(u.SessionID, rt.Name); live {
				st := c.State()
				t.Live = &st
			}
		}
		out = append(out, t)
	}
	return out
}
