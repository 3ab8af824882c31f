// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/authz"
)

// pageData is the JSON body of the error endpoints.
type pageData struct {
	Title      string `json:"title"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	Role       string `json:"role,omitempty"`
	UserName   string `json:"userName,omitempty"`
	Message    string `json:"message"`
	BackURL    string `json:"backUrl"`
}

// Handler is the errors feature handler.
// No dependencies; it just writes JSON.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden answers GET /forbidden, where role checks redirect browsers.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	WriteJSON(w, http.StatusForbidden, pageData{
		Title:      "Access denied",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "You don't have permission to view this page.",
		BackURL:    "/dashboard",
	})
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	_, signedIn := auth.CurrentUser(r)
	back := "/login"
	if signedIn {
		back = "/dashboard"
	}
	WriteJSON(w, http.StatusNotFound, pageData{
		Title:      "Not found",
		IsLoggedIn: signedIn,
		Message:    "The page you asked for does not exist.",
		BackURL:    back,
	})
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
