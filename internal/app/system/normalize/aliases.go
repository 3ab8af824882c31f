package normalize

import (
	"encoding/json"
	"strings"

	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Aliases maps each canonical field to the spellings the backend has been
// seen to use, in precedence order. The first non-empty value wins and every
// alias key is dropped from the record once coalesced.
var Aliases = []struct {
	Canonical string
	Keys      []string
}{
	{models.FieldID, []string{"id", "_id", "uuid"}},
	{models.FieldName, []string{"name", "title", "fullName", "full_name", "companyName", "company_name"}},
	{models.FieldCreatedAt, []string{"createdAt", "created_at", "createdOn"}},
	{models.FieldUpdatedAt, []string{"updatedAt", "updated_at", "modifiedAt"}},
	{models.FieldLogo, []string{"logoUrl", "logo_url", "logo"}},
	{models.FieldProjectLogo, []string{"projectLogoUrl", "project_logo_url", "projectLogo"}},
	{models.FieldStatus, []string{"status", "state"}},
	{models.FieldFinancialLimit, []string{"financialLimit", "financial_limit"}},
	{"projectName", []string{"projectName", "project_name"}},
	{"eventId", []string{"eventId", "event_id"}},
	{"userId", []string{"userId", "user_id"}},
	{"companyId", []string{"companyId", "company_id"}},
	{"startDate", []string{"startDate", "start_date"}},
	{"endDate", []string{"endDate", "end_date"}},
	{"raciRole", []string{"raciRole", "raci_role"}},
}

// isEmpty reports whether a decoded JSON value carries nothing useful.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// coalesce returns the first non-empty value among keys, and whether any of
// the keys was present at all (even with an empty value).
func coalesce(obj map[string]any, keys []string) (any, bool) {
	present := false
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		present = true
		if !isEmpty(v) {
			return v, true
		}
	}
	return nil, present
}

// idString renders an id value of any JSON type as a string.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case map[string]any:
		// Mongo extended JSON: {"$oid": "..."}
		if s, ok := t["$oid"].(string); ok {
			return s
		}
	}
	return ""
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return ""
}
