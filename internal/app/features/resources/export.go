// internal/app/features/resources/export.go
package resources

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/export"
	"github.com/dalemusser/raciconsole/internal/app/system/gates"
)

// ServeExport handles GET /r/{resource}/export.xlsx. It takes the same
// filters as the list and writes every matching row, unpaged.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
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
	if c.State().Unauthenticated {
		h.unauthenticated(w, r)
		return
	}
	if err := h.ensureLoaded(r.Context(), c, listParams(r, rt), false); err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) || errors.Is(err, resourcesession.ErrClosed) {
			h.controllerError(w, r, rt, err)
			return
		}
		h.ErrLog.LogUpstream(w, r, "load for export", err, "Couldn't load "+strings.ToLower(rt.Label)+".")
		return
	}

	v := c.View(spec)
	var buf bytes.Buffer
	if err := export.Write(&buf, rt.Name, v.Rows, rt.Columns); err != nil {
		h.ErrLog.LogServerError(w, r, "write export", err, "Couldn't build the spreadsheet.")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(rt.Name, time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
