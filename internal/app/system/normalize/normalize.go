// Package normalize turns user input and backend payloads into the
// canonical forms the rest of the console works with.
//
// Text helpers (Email, Name, Role, ...) trim and case-fold form and query
// values. Records and Record reconcile the backend's inconsistent response
// shapes and field spellings; see shape.go and aliases.go.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// OrgID trims an organization id; the picker value "all" means no filter.
func OrgID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
