// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// UserCtx returns the user's role (lowercased), name, backend user id, and a
// found flag. If no user is present in context it returns "visitor", "", "",
// false. The role is normalized to lowercase for consistent comparison.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || strings.TrimSpace(user.ID) == "" {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsWebsiteAdmin reports whether the current request's user administers the
// whole site.
func IsWebsiteAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleWebsiteAdmin
}

// CompanyID returns the company the current user belongs to, or "".
func CompanyID(r *http.Request) string {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return ""
	}
	return user.CompanyID
}

// CanView reports whether the current user may open the resource's view.
func CanView(r *http.Request, rt models.ResourceType) bool {
	role, _, _, ok := UserCtx(r)
	return ok && rt.CanView(role)
}

// CanManage reports whether the current user may create, update or delete
// records of the resource.
func CanManage(r *http.Request, rt models.ResourceType) bool {
	role, _, _, ok := UserCtx(r)
	return ok && rt.CanManage(role)
}
