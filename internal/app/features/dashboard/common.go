// internal/app/features/dashboard/common.go
package dashboard

import (
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// dashboardData is the dashboard response for every role.
type dashboardData struct {
	Title        string               `json:"title"`
	User         models.Identity      `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
	Resources    []resourceTile       `json:"resources"`
}

// resourceTile is one resource the user may open. Live is set when the
// session already holds a view of it.
type resourceTile struct {
	Name      string                 `json:"name"`
	Label     string                 `json:"label"`
	Href      string                 `json:"href"`
	CanManage bool                   `json:"canManage"`
	Live      *resourcesession.State `json:"live,omitempty"`
}

func titleFor(role string) string {
	switch role {
	case models.RoleWebsiteAdmin:
		return "Website Admin Dashboard"
	case models.RoleCompanyAdmin:
		return "Company Admin Dashboard"
	case models.RoleHOD:
		return "Head of Department Dashboard"
	}
	return "Dashboard"
}
