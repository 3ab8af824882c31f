// internal/domain/models/resourcetypes.go
package models

// Canonical resource identifiers. These are the backend's collection paths
// and the console's URL segments.
const (
	ResourceCompanies      = "companies"
	ResourceDepartments    = "departments"
	ResourceDesignations   = "designations"
	ResourceLocations      = "locations"
	ResourceDivisions      = "divisions"
	ResourceUsers          = "users"
	ResourceEvents         = "events"
	ResourceRaciAssignment = "raci-assignments"
	ResourceMeetings       = "meetings"
)

// ResourceType describes how one backend collection is fetched, ordered,
// validated and who may see or change it.
type ResourceType struct {
	Name     string // collection path and plural response key, e.g. "departments"
	Singular string // key used by single-record responses, e.g. "department"
	Label    string // plural, for headings
	Noun     string // singular, for messages

	// DateField is the natural ordering field for default sorts and date
	// range filters.
	DateField string

	// CompanyScoped resources are always listed with the session's companyId.
	CompanyScoped bool

	// Rules are go-playground/validator rules keyed by canonical field name.
	// Updates only check the fields they carry.
	Rules map[string]any

	ViewRoles   []string
	ManageRoles []string

	// Columns are the canonical fields written by spreadsheet exports.
	Columns []string
}

var orgRoles = []string{RoleCompanyAdmin, RoleHOD, RoleUser}

// ResourceTypes is the single source of truth for the resources the
// console manages. Order is the dashboard order.
var ResourceTypes = []ResourceType{
	{
		Name: ResourceCompanies, Singular: "company", Label: "Companies", Noun: "Company",
		DateField: FieldCreatedAt,
		Rules: map[string]any{
			FieldName: "required,min=2,max=120",
			"domain":  "omitempty,fqdn",
		},
		ViewRoles:   []string{RoleWebsiteAdmin},
		ManageRoles: []string{RoleWebsiteAdmin},
		Columns:     []string{FieldName, "domain", "industry", "size", FieldCreatedAt},
	},
	{
		Name: ResourceDepartments, Singular: "department", Label: "Departments", Noun: "Department",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules:       map[string]any{FieldName: "required,min=1,max=120"},
		ViewRoles:   []string{RoleCompanyAdmin, RoleHOD},
		ManageRoles: []string{RoleCompanyAdmin},
		Columns:     []string{FieldName, FieldStatus, FieldCreatedAt},
	},
	{
		Name: ResourceDesignations, Singular: "designation", Label: "Designations", Noun: "Designation",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules:       map[string]any{FieldName: "required,min=1,max=120"},
		ViewRoles:   []string{RoleCompanyAdmin, RoleHOD},
		ManageRoles: []string{RoleCompanyAdmin},
		Columns:     []string{FieldName, FieldFinancialLimit, FieldCreatedAt},
	},
	{
		Name: ResourceLocations, Singular: "location", Label: "Locations", Noun: "Location",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules:       map[string]any{FieldName: "required,min=1,max=120"},
		ViewRoles:   []string{RoleCompanyAdmin, RoleHOD},
		ManageRoles: []string{RoleCompanyAdmin},
		Columns:     []string{FieldName, "address", FieldCreatedAt},
	},
	{
		Name: ResourceDivisions, Singular: "division", Label: "Divisions", Noun: "Division",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules:       map[string]any{FieldName: "required,min=1,max=120"},
		ViewRoles:   []string{RoleCompanyAdmin, RoleHOD},
		ManageRoles: []string{RoleCompanyAdmin},
		Columns:     []string{FieldName, FieldStatus, FieldCreatedAt},
	},
	{
		Name: ResourceUsers, Singular: "user", Label: "Users", Noun: "User",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules: map[string]any{
			FieldName: "required,min=1,max=120",
			"email":   "required,email",
			"role":    "required,oneof=company_admin hod user",
		},
		ViewRoles:   []string{RoleWebsiteAdmin, RoleCompanyAdmin, RoleHOD},
		ManageRoles: []string{RoleWebsiteAdmin, RoleCompanyAdmin},
		Columns:     []string{FieldName, "email", "role", "department", "designation", FieldStatus},
	},
	{
		Name: ResourceEvents, Singular: "event", Label: "Events", Noun: "Event",
		DateField: "startDate", CompanyScoped: true,
		Rules: map[string]any{
			FieldName:   "required,min=1,max=200",
			"startDate": "omitempty",
		},
		ViewRoles:   orgRoles,
		ManageRoles: []string{RoleCompanyAdmin, RoleHOD},
		Columns:     []string{FieldName, "startDate", "endDate", FieldStatus},
	},
	{
		Name: ResourceRaciAssignment, Singular: "raciAssignment", Label: "RACI assignments", Noun: "RACI assignment",
		DateField: FieldCreatedAt, CompanyScoped: true,
		Rules: map[string]any{
			"eventId":  "required",
			"userId":   "required",
			"raciRole": "required,oneof=responsible accountable consulted informed",
		},
		ViewRoles:   orgRoles,
		ManageRoles: []string{RoleCompanyAdmin, RoleHOD},
		Columns:     []string{"eventId", "userId", "raciRole", FieldStatus},
	},
	{
		Name: ResourceMeetings, Singular: "meeting", Label: "Meetings", Noun: "Meeting",
		DateField: "date", CompanyScoped: true,
		Rules: map[string]any{
			FieldName: "required,min=1,max=200",
			"date":    "required",
		},
		ViewRoles:   orgRoles,
		ManageRoles: []string{RoleCompanyAdmin, RoleHOD},
		Columns:     []string{FieldName, "date", "time", "eventId", "guests"},
	},
}

// LookupResourceType finds a descriptor by its collection name.
func LookupResourceType(name string) (ResourceType, bool) {
	for _, rt := range ResourceTypes {
		if rt.Name == name {
			return rt, true
		}
	}
	return ResourceType{}, false
}

// CanView reports whether role may list this resource.
func (rt ResourceType) CanView(role string) bool {
	return contains(rt.ViewRoles, role) || contains(rt.ManageRoles, role)
}

// CanManage reports whether role may create, update or delete.
func (rt ResourceType) CanManage(role string) bool {
	return contains(rt.ManageRoles, role)
}

// VisibleTo returns the descriptors a role may view, in dashboard order.
func VisibleTo(role string) []ResourceType {
	var out []ResourceType
	for _, rt := range ResourceTypes {
		if rt.CanView(role) {
			out = append(out, rt)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
