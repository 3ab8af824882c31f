package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Counter reports a live count, such as open views or cached sessions.
type Counter interface {
	Len() int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client     *mongo.Client
	BackendURL string
	Views      Counter // optional
	Sessions   Counter // optional
	Log        *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, backendURL string, views, sessions Counter, logger *zap.Logger) *Handler {
	return &Handler{
		Client:     client,
		BackendURL: backendURL,
		Views:      views,
		Sessions:   sessions,
		Log:        logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Views    *int   `json:"live_views,omitempty"`
	Sessions *int   `json:"cached_sessions,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "backend":"https://…", "live_views":3, "cached_sessions":2 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Backend:  h.BackendURL,
	}

	// Check database
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Process-local counts, informational only
	if h.Views != nil {
		n := h.Views.Len()
		resp.Views = &n
	}
	if h.Sessions != nil {
		n := h.Sessions.Len()
		resp.Sessions = &n
	}

	_ = json.NewEncoder(w).Encode(resp)
}
