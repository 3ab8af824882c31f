// internal/app/features/resources/routes.go
package resources

import (
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the generic resource views under /r.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Route("/{resource}", func(rr chi.Router) {
			rr.Get("/", h.ServeList)
			rr.Post("/", h.HandleCreate)
			rr.Post("/reload", h.HandleReload)
			rr.Get("/export.xlsx", h.ServeExport)
			rr.Delete("/notifications/{nid}", h.HandleDismiss)
			rr.Put("/{id}", h.HandleUpdate)
			rr.Delete("/{id}", h.HandleDelete)
		})
	})
	return r
}
