// internal/app/features/resources/notifications.go
package resources

import (
	"net/http"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/system/gates"
	"github.com/go-chi/chi/v5"
)

// HandleDismiss handles DELETE /r/{resource}/notifications/{nid}.
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
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
	if !c.Dismiss(chi.URLParam(r, "nid")) {
		uierrors.Error(w, http.StatusNotFound, "Notification not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
