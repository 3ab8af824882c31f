// internal/domain/models/organization.go
package models

// Organization is the company that owns an identity.
//
// Fallback is true when the company lookup failed and only the id and a
// best-effort name are known.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	ProjectLogo string `json:"projectLogo,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Size        string `json:"size,omitempty"`
	Fallback    bool   `json:"fallback,omitempty"`
}

// FallbackOrganization builds the minimal organization used when the
// company lookup fails.
func FallbackOrganization(id Identity) Organization {
	return Organization{
		ID:       id.OrganizationRef,
		Name:     id.OrganizationName,
		Fallback: true,
	}
}
