// internal/app/features/resources/list.go
package resources

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/gates"
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/app/system/paging"
	"github.com/dalemusser/raciconsole/internal/app/system/projection"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

// listResponse is one page of a projected view.
type listResponse struct {
	Resource      string                `json:"resource"`
	Label         string                `json:"label"`
	CanManage     bool                  `json:"canManage"`
	Loaded        bool                  `json:"loaded"`
	Loading       bool                  `json:"loading"`
	Version       uint64                `json:"version"`
	Total         int                   `json:"total"`   // rows before filtering
	Matched       int                   `json:"matched"` // rows after filtering
	Rows          []models.Record       `json:"rows"`
	Range         paging.Range          `json:"range"`
	Notifications []notify.Notification `json:"notifications"`
}

// ServeList handles GET /r/{resource}. The collection is fetched on first
// use and whenever the backend parameters change; filtering, sorting and
// paging are applied to the cached collection.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.resourceType(w, r)
	if !ok {
		return
	}
	if res := gates.RequireView(w, r, rt); !res.OK {
		return
	}
	spec, bad := parseSpec(r)
	if bad != nil {
		uierrors.Validation(w, "Please check the filters.", bad)
		return
	}
	c, ok := h.view(w, r, rt)
	if !ok {
		return
	}

	st := c.State()
	if st.Unauthenticated {
		h.unauthenticated(w, r)
		return
	}
	p := listParams(r, rt)
	stale := st.Loaded && paramsDiffer(c, rt, p)
	if err := h.ensureLoaded(r.Context(), c, p, stale); err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) || errors.Is(err, resourcesession.ErrClosed) {
			h.controllerError(w, r, rt, err)
			return
		}
		// The failure is on the view as a notification.
		h.Log.Debug("list load failed", zap.String("resource", rt.Name), zap.Error(err))
	}

	h.writeView(w, c, spec, paging.ParseStart(r), paging.ParseLimit(r))
}

// HandleReload handles POST /r/{resource}/reload.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.resourceType(w, r)
	if !ok {
		return
	}
	if res := gates.RequireView(w, r, rt); !res.OK {
		return
	}
	c, ok := h.view(w, r, rt)
	if !ok {
		return
	}

	var err error
	if c.State().Loaded {
		err = c.Reload(r.Context())
	} else {
		err = c.Load(r.Context(), listParams(r, rt))
	}
	if h.controllerError(w, r, rt, err) {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, c.State())
}

func (h *Handler) writeView(w http.ResponseWriter, c *resourcesession.Controller, spec projection.Spec, start, limit int) {
	v := c.View(spec)
	rows, rg := paging.Page(v.Rows, start, limit)
	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Resource:      v.Resource,
		Label:         v.Label,
		CanManage:     v.CanManage,
		Loaded:        v.Loaded,
		Loading:       v.Loading,
		Version:       v.Version,
		Total:         v.Total,
		Matched:       len(v.Rows),
		Rows:          rows,
		Range:         rg,
		Notifications: v.Notifications,
	})
}

// paramsDiffer reports whether p would fetch something other than the
// controller's last load.
func paramsDiffer(c *resourcesession.Controller, rt models.ResourceType, p backend.ListParams) bool {
	if rt.CompanyScoped && p.CompanyID == "" {
		p.CompanyID = c.Session().CompanyID()
	}
	return c.Params() != p
}
