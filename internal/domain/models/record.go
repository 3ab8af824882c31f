// internal/domain/models/record.go
package models

import (
	"time"
)

// Canonical field names. Every backend alias is coalesced into one of these
// by the normalizer before a record reaches a view.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldStatus         = "status"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
	FieldLogo           = "logo"
	FieldProjectLogo    = "projectLogo"
	FieldFinancialLimit = "financialLimit"
)

// Record is one element of a resource collection in canonical form.
//
// ID, Name, Status and the timestamps are lifted out of the payload; every
// other field stays in Fields under its canonical key.
type Record struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Fields      map[string]any `json:"fields,omitempty"`
	Placeholder bool           `json:"placeholder,omitempty"`
}

// Get returns the value of a canonical field, lifted or not.
func (r Record) Get(field string) (any, bool) {
	switch field {
	case FieldID:
		return r.ID, r.ID != ""
	case FieldName:
		return r.Name, r.Name != ""
	case FieldStatus:
		return r.Status, r.Status != ""
	case FieldCreatedAt:
		return r.CreatedAt, !r.CreatedAt.IsZero()
	case FieldUpdatedAt:
		return r.UpdatedAt, !r.UpdatedAt.IsZero()
	}
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Time returns a field parsed as a time. Malformed values report false.
func (r Record) Time(field string) (time.Time, bool) {
	v, ok := r.Get(field)
	if !ok {
		return time.Time{}, false
	}
	return ParseTime(v)
}

// WallTime reads field as written, ignoring any UTC offset.
func (r Record) WallTime(field string) (time.Time, bool) {
	v, ok := r.Get(field)
	if !ok {
		return time.Time{}, false
	}
	return ParseWallTime(v)
}

// Clone returns a deep copy so snapshots cannot be changed through the
// original's maps and slices.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = cloneMap(r.Fields)
	}
	return out
}

// WithChanges returns a copy of r with the given canonical fields applied.
// Lifted fields are routed to their struct members.
func (r Record) WithChanges(changes map[string]any, now time.Time) Record {
	out := r.Clone()
	for k, v := range changes {
		switch k {
		case FieldID:
			// ids are never changed by an update
		case FieldName:
			if s, ok := v.(string); ok {
				out.Name = s
			}
		case FieldStatus:
			if s, ok := v.(string); ok {
				out.Status = s
			}
		case FieldCreatedAt:
		case FieldUpdatedAt:
		default:
			if out.Fields == nil {
				out.Fields = make(map[string]any)
			}
			out.Fields[k] = cloneValue(v)
		}
	}
	if now.After(out.UpdatedAt) {
		out.UpdatedAt = now
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	default:
		return v
	}
}
