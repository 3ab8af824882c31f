// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Handler serves user information for the current request.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            string   `json:"role"`
	CompanyID       string   `json:"companyId,omitempty"`
	CanView         []string `json:"canView"`
	CanManage       []string `json:"canManage"`
}

// ServeUserInfo returns JSON with the caller's authentication status, identity
// and the resources their role may open or change. Anonymous callers get
// isAuthenticated=false rather than a redirect.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusOK, userInfo{CanView: []string{}, CanManage: []string{}})
		return
	}

	info := userInfo{
		IsAuthenticated: true,
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		CompanyID:       user.CompanyID,
		CanView:         []string{},
		CanManage:       []string{},
	}
	for _, rt := range models.VisibleTo(user.Role) {
		info.CanView = append(info.CanView, rt.Name)
		if rt.CanManage(user.Role) {
			info.CanManage = append(info.CanManage, rt.Name)
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, info)
}
