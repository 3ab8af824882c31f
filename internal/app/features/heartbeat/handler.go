// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"go.uber.org/zap"
)

// ViewToucher keeps a console session's views from being reaped as idle.
type ViewToucher interface {
	Touch(sessionID string) int
}

// Handler handles heartbeat requests from open console pages.
type Handler struct {
	Views       ViewToucher
	InactiveTTL time.Duration
	Log         *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(views ViewToucher, inactiveTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		Views:       views,
		InactiveTTL: inactiveTTL,
		Log:         logger,
	}
}

type heartbeatResponse struct {
	Views       int `json:"views"`
	InactiveTTL int `json:"inactiveTtlSeconds,omitempty"`
}

// ServeHeartbeat handles POST /api/heartbeat.
// Loading the session for this request already refreshed its last activity;
// the heartbeat also keeps the session's live views warm.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		auth.Unauthenticated(w, r)
		return
	}

	n := 0
	if h.Views != nil && u.SessionID != "" {
		n = h.Views.Touch(u.SessionID)
	}
	h.Log.Debug("heartbeat", zap.String("session_id", u.SessionID), zap.Int("views", n))

	uierrors.WriteJSON(w, http.StatusOK, heartbeatResponse{
		Views:       n,
		InactiveTTL: int(h.InactiveTTL / time.Second),
	})
}
