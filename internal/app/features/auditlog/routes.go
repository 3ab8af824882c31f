// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// Website admins see all events; company admins see only their company's.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleWebsiteAdmin, models.RoleCompanyAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
