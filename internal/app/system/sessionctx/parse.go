package sessionctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// roleAliases maps role spellings seen from the backend to console roles.
var roleAliases = map[string]string{
	"website_admin":      models.RoleWebsiteAdmin,
	"websiteadmin":       models.RoleWebsiteAdmin,
	"superadmin":         models.RoleWebsiteAdmin,
	"super_admin":        models.RoleWebsiteAdmin,
	"company_admin":      models.RoleCompanyAdmin,
	"companyadmin":       models.RoleCompanyAdmin,
	"admin":              models.RoleCompanyAdmin,
	"hod":                models.RoleHOD,
	"head_of_department": models.RoleHOD,
	"user":               models.RoleUser,
	"employee":           models.RoleUser,
}

// canonicalRole folds a backend role into a console role. Unknown roles
// become RoleUser, the least privileged.
func canonicalRole(s string) string {
	r := strings.ReplaceAll(normalize.Role(s), "-", "_")
	if c, ok := roleAliases[r]; ok {
		return c
	}
	return models.RoleUser
}

// unwrap finds the object describing key in a response: {key:{}},
// {data:{key:{}}}, {data:{}} or the bare object.
func unwrap(raw []byte, key string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", normalize.ErrMalformedResponse, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, normalize.ErrMalformedResponse
	}
	if inner, ok := obj[key].(map[string]any); ok {
		return inner, nil
	}
	if data, ok := obj["data"].(map[string]any); ok {
		if inner, ok := data[key].(map[string]any); ok {
			return inner, nil
		}
		return data, nil
	}
	return obj, nil
}

// parseIdentity reads a "who am I" response.
func parseIdentity(raw []byte) (models.Identity, error) {
	obj, err := unwrap(raw, "user")
	if err != nil {
		return models.Identity{}, err
	}
	// companyName is a name alias for companies, not for the user.
	user := make(map[string]any, len(obj))
	var companyName string
	for k, v := range obj {
		if k == "companyName" || k == "company_name" {
			if companyName == "" {
				companyName = str(v)
			}
			continue
		}
		user[k] = v
	}
	rec, ok := normalize.FromObject(user)
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: identity has no id", normalize.ErrMalformedResponse)
	}
	id := models.Identity{
		ID:    rec.ID,
		Name:  rec.Name,
		Email: normalize.Email(str(rec.Fields["email"])),
		Role:  canonicalRole(str(rec.Fields["role"])),
	}
	if id.Name == "" {
		id.Name = strings.TrimSpace(str(rec.Fields["firstName"]) + " " + str(rec.Fields["lastName"]))
	}

	// The company reference comes as an id, or as an embedded object.
	switch c := rec.Fields["company"].(type) {
	case map[string]any:
		if crec, ok := normalize.FromObject(c); ok {
			id.OrganizationRef = crec.ID
			id.OrganizationName = crec.Name
		}
	case string:
		id.OrganizationRef = strings.TrimSpace(c)
	}
	if id.OrganizationRef == "" {
		for _, k := range []string{"companyId", "organizationId", "organization_id"} {
			if s := str(rec.Fields[k]); s != "" {
				id.OrganizationRef = s
				break
			}
		}
	}
	if id.OrganizationName == "" {
		id.OrganizationName = companyName
	}
	return id, nil
}

// parseOrganization reads a company response.
func parseOrganization(raw []byte) (models.Organization, error) {
	obj, err := unwrap(raw, "company")
	if err != nil {
		return models.Organization{}, err
	}
	rec, ok := normalize.FromObject(obj)
	if !ok {
		return models.Organization{}, fmt.Errorf("%w: company has no id", normalize.ErrMalformedResponse)
	}
	return models.Organization{
		ID:          rec.ID,
		Name:        rec.Name,
		Logo:        str(rec.Fields[models.FieldLogo]),
		ProjectName: str(rec.Fields["projectName"]),
		ProjectLogo: str(rec.Fields[models.FieldProjectLogo]),
		Domain:      str(rec.Fields["domain"]),
		Industry:    str(rec.Fields["industry"]),
		Size:        str(rec.Fields["size"]),
	}, nil
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprint(t)
	}
	return ""
}
