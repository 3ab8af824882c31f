package normalize

import (
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Result is the outcome of normalizing one list response.
type Result struct {
	Records []models.Record
	Shape   Shape
	Dropped int // elements skipped: not objects, no id, or a repeated id
}

// Records normalizes a list response for the given collection.
//
// It never panics on unexpected input. An unrecognized payload yields an
// empty, non-nil slice and ErrMalformedResponse so callers can surface the
// degradation instead of failing the whole view.
func Records(raw []byte, resource string) (Result, error) {
	v, err := decode(raw)
	if err != nil {
		return Result{Records: []models.Record{}}, ErrMalformedResponse
	}
	shape, items, err := detect(v, resource)
	if err != nil {
		return Result{Records: []models.Record{}, Shape: ShapeUnknown}, err
	}

	res := Result{Records: make([]models.Record, 0, len(items)), Shape: shape}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			res.Dropped++
			continue
		}
		rec, ok := FromObject(obj)
		if !ok {
			res.Dropped++
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			res.Dropped++
			continue
		}
		seen[rec.ID] = struct{}{}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// Record extracts the single record a create or update call returned.
// Accepted: {"<singular>": {...}}, {"data": {...}}, {"data": {"<singular>": {...}}},
// and a bare object carrying an id.
func Record(raw []byte, singular string) (models.Record, bool) {
	v, err := decode(raw)
	if err != nil {
		return models.Record{}, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Record{}, false
	}
	candidates := []any{obj[singular]}
	if data, ok := obj["data"].(map[string]any); ok {
		candidates = append(candidates, data[singular], data)
	}
	candidates = append(candidates, obj)
	for _, c := range candidates {
		if m, ok := c.(map[string]any); ok {
			if rec, ok := FromObject(m); ok {
				return rec, true
			}
		}
	}
	return models.Record{}, false
}

// FromObject coalesces one decoded JSON object into a canonical record.
// It reports false when no id alias carries a value.
func FromObject(obj map[string]any) (models.Record, bool) {
	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		fields[k] = v
	}

	var rec models.Record
	for _, alias := range Aliases {
		v, present := coalesce(fields, alias.Keys)
		for _, k := range alias.Keys {
			delete(fields, k)
		}
		if !present {
			continue
		}
		switch alias.Canonical {
		case models.FieldID:
			rec.ID = idString(v)
		case models.FieldName:
			rec.Name = stringOf(v)
		case models.FieldStatus:
			rec.Status = Status(stringOf(v))
		case models.FieldCreatedAt:
			rec.CreatedAt, _ = models.ParseTime(v)
		case models.FieldUpdatedAt:
			rec.UpdatedAt, _ = models.ParseTime(v)
		case models.FieldFinancialLimit:
			if lim, err := models.ParseFinancialLimit(v); err == nil {
				fields[alias.Canonical] = lim
			} else {
				fields[alias.Canonical] = v
			}
		default:
			if v != nil {
				fields[alias.Canonical] = v
			}
		}
	}
	if rec.ID == "" {
		return models.Record{}, false
	}
	if rec.UpdatedAt.Before(rec.CreatedAt) {
		rec.UpdatedAt = rec.CreatedAt
	}
	if len(fields) > 0 {
		rec.Fields = fields
	}
	return rec, true
}
