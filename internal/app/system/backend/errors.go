package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated means the backend rejected the credential (401/403)
	// or there was none to send. The operator must sign in again.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNetworkFailure means no response arrived: connection errors,
	// timeouts and cancellations. The underlying error is wrapped too.
	ErrNetworkFailure = errors.New("backend unreachable")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string            // backend supplied message, may be empty
	Fields  map[string]string // per-field messages when the backend sent them
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, http.StatusText(e.Status))
}

// Unwrap maps 401 and 403 to ErrUnauthenticated.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthenticated
	}
	return nil
}

// UserMessage is the text to show an operator, if the backend gave one.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return e.Fields[keys[0]]
	}
	return ""
}

// newAPIError builds an APIError from a response body, pulling out
// whatever message fields the backend used.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return e
	}
	e.Message = firstString(m, "message", "error", "msg", "detail")
	if e.Message == "" {
		if nested, ok := m["error"].(map[string]any); ok {
			e.Message = firstString(nested, "message", "msg")
		}
	}
	switch errs := m["errors"].(type) {
	case map[string]any:
		e.Fields = make(map[string]string, len(errs))
		for k, v := range errs {
			if s := stringish(v); s != "" {
				e.Fields[k] = s
			}
		}
	case []any:
		// [{"field": "name", "message": "..."}]
		for _, item := range errs {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			field := firstString(obj, "field", "path", "param")
			msg := firstString(obj, "message", "msg")
			if field == "" || msg == "" {
				continue
			}
			if e.Fields == nil {
				e.Fields = make(map[string]string)
			}
			e.Fields[field] = msg
		}
	}
	return e
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return stringish(t[0])
		}
	}
	return ""
}
