// internal/domain/models/identity.go
package models

// Console roles, as reported by the backend's "who am I" endpoint.
const (
	RoleWebsiteAdmin = "website_admin"
	RoleCompanyAdmin = "company_admin"
	RoleHOD          = "hod"
	RoleUser         = "user"
)

// Identity is the signed-in person as the backend describes them.
//
// NOTE:
//   - Identity is resolved once per console session and is immutable until
//     logout or an explicit refresh.
//   - OrganizationName is a best-effort copy used only when the company
//     lookup fails and a fallback Organization has to be built.
type Identity struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	OrganizationRef  string `json:"organizationRef,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// HasOrganization reports whether the identity belongs to a company.
// Website admins operate across companies and usually do not.
func (i Identity) HasOrganization() bool {
	return i.OrganizationRef != ""
}
