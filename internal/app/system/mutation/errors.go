package mutation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
)

var (
	// ErrConcurrentMutation rejects a second intent for a record whose
	// previous change has not resolved yet.
	ErrConcurrentMutation = errors.New("a change to this record is already in progress")

	// ErrNotFound is returned for updates and deletes of unknown ids.
	ErrNotFound = errors.New("record not found")

	// ErrMissingTarget is returned for updates and deletes without an id.
	ErrMissingTarget = errors.New("target id required")
)

// ValidationError lists the fields of a payload that failed local checks.
// Nothing was applied or sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RejectedError is a mutation the backend refused or never received. The
// optimistic change has been rolled back by the time it is reported.
type RejectedError struct {
	Kind     Kind
	Resource string
	TargetID string
	Err      error
}

func (e *RejectedError) Error() string {
	if e.TargetID != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Kind, e.Resource, e.TargetID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Resource, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Message is the text shown to the operator: the backend's own message when
// it sent one, otherwise a generic sentence naming the action.
func (e *RejectedError) Message(noun string) string {
	var apiErr *backend.APIError
	if errors.As(e.Err, &apiErr) {
		if msg := apiErr.UserMessage(); msg != "" {
			return msg
		}
	}
	if errors.Is(e.Err, backend.ErrNetworkFailure) {
		return fmt.Sprintf("Could not reach the server. The %s was not %s.", strings.ToLower(noun), e.Kind.pastTense())
	}
	return fmt.Sprintf("Could not %s %s. Please try again.", e.Kind, strings.ToLower(noun))
}
