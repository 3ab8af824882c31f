// internal/app/features/meetings/routes.go
package meetings

import (
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the meetings calendar under /meetings.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/calendar", h.ServeCalendar)
	})
	return r
}
