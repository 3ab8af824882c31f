// internal/app/features/heartbeat/routes.go
package heartbeat

import (
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /api/heartbeat on the supplied router.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Post("/api/heartbeat", h.ServeHeartbeat)
}
