package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when a payload matches none of the known
// response shapes. The accompanying record slice is always empty, never nil
// data from a partial parse.
var ErrMalformedResponse = errors.New("malformed response")

// Shape identifies which backend response variant a payload used.
type Shape int

const (
	ShapeUnknown      Shape = iota
	ShapeArray              // [ ... ]
	ShapeKeyed              // { "<resource>": [ ... ] }
	ShapeData               // { "data": [ ... ] }
	ShapeSuccessKeyed       // { "success": true, "<resource>": [ ... ] }
	ShapeNestedData         // { "data": { "<resource>": [ ... ] } }
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeKeyed:
		return "keyed"
	case ShapeData:
		return "data"
	case ShapeSuccessKeyed:
		return "success_keyed"
	case ShapeNestedData:
		return "nested_data"
	default:
		return "unknown"
	}
}

// decode parses raw JSON keeping numbers as json.Number so ids and amounts
// keep their exact text.
func decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// collectionKeys lists the object keys that may hold a resource's array:
// the collection name itself and its camelCase spelling.
func collectionKeys(resource string) []string {
	keys := []string{resource}
	if c := camel(resource); c != resource {
		keys = append(keys, c)
	}
	return keys
}

// camel converts "raci-assignments" or "raci_assignments" to "raciAssignments".
func camel(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) <= 1 {
		return s
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// detect classifies a decoded payload and returns the array it carries.
func detect(v any, resource string) (Shape, []any, error) {
	switch t := v.(type) {
	case []any:
		return ShapeArray, t, nil
	case map[string]any:
		if ok, present := t["success"].(bool); present && !ok {
			if msg := messageOf(t); msg != "" {
				return ShapeUnknown, nil, fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
			}
			return ShapeUnknown, nil, ErrMalformedResponse
		}
		for _, k := range collectionKeys(resource) {
			if arr, ok := t[k].([]any); ok {
				if _, hasSuccess := t["success"]; hasSuccess {
					return ShapeSuccessKeyed, arr, nil
				}
				return ShapeKeyed, arr, nil
			}
		}
		switch data := t["data"].(type) {
		case []any:
			return ShapeData, data, nil
		case map[string]any:
			for _, k := range collectionKeys(resource) {
				if arr, ok := data[k].([]any); ok {
					return ShapeNestedData, arr, nil
				}
			}
		}
	}
	return ShapeUnknown, nil, ErrMalformedResponse
}

// messageOf pulls a human message out of an error-ish object.
func messageOf(m map[string]any) string {
	for _, k := range []string{"message", "error", "msg"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
