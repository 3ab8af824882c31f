package mutation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// prepare returns a cleaned copy of payload: strings trimmed, email and
// role folded, financial limits parsed. A limit that cannot be parsed is
// reported as a field error.
func prepare(payload map[string]any) (map[string]any, map[string]string) {
	out := make(map[string]any, len(payload))
	var errs map[string]string
	for k, v := range payload {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		switch k {
		case "email":
			if s, ok := v.(string); ok {
				v = normalize.Email(s)
			}
		case "role":
			if s, ok := v.(string); ok {
				v = normalize.Role(s)
			}
		case models.FieldStatus:
			if s, ok := v.(string); ok {
				v = normalize.Status(s)
			}
		case models.FieldFinancialLimit:
			lim, err := models.ParseFinancialLimit(v)
			if err != nil {
				if errs == nil {
					errs = make(map[string]string)
				}
				errs[k] = label(k) + " must be a non-negative amount or empty for no limit"
				continue
			}
			v = lim
		}
		out[k] = v
	}
	return out, errs
}

// check cleans payload and validates it against the descriptor's rules.
// Partial payloads (updates) are only checked for the fields they carry.
// The cleaned payload is what gets applied and sent.
func check(rt models.ResourceType, payload map[string]any, partial bool) (map[string]any, *ValidationError) {
	clean, fieldErrs := prepare(payload)

	rules := rt.Rules
	if partial {
		rules = make(map[string]any, len(clean))
		for k := range clean {
			if r, ok := rt.Rules[k]; ok {
				rules[k] = r
			}
		}
	}
	for field, err := range validate.ValidateMap(clean, rules) {
		if _, seen := fieldErrs[field]; seen {
			continue
		}
		if fieldErrs == nil {
			fieldErrs = make(map[string]string)
		}
		fieldErrs[field] = message(field, err)
	}
	if len(fieldErrs) == 0 {
		return clean, nil
	}
	return nil, &ValidationError{Fields: fieldErrs}
}

// Validate checks values against validator rules keyed by field name,
// for forms outside the resource descriptors. It returns nil when every
// field passes.
func Validate(values map[string]any, rules map[string]any) *ValidationError {
	var fieldErrs map[string]string
	for field, err := range validate.ValidateMap(values, rules) {
		if fieldErrs == nil {
			fieldErrs = make(map[string]string)
		}
		fieldErrs[field] = message(field, err)
	}
	if len(fieldErrs) == 0 {
		return nil
	}
	return &ValidationError{Fields: fieldErrs}
}

func message(field string, err any) string {
	e, ok := err.(error)
	if !ok {
		return label(field) + " is invalid"
	}
	var verrs validator.ValidationErrors
	if !errors.As(e, &verrs) || len(verrs) == 0 {
		return label(field) + " is invalid"
	}
	fe := verrs[0]
	name := label(field)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return name + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "fqdn":
		return name + " must be a domain name"
	}
	return name + " is invalid"
}

// label turns a canonical field name into words: "eventId" -> "Event id".
func label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
