// internal/domain/models/financial.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidFinancialLimit is returned for negative or unparseable limits.
var ErrInvalidFinancialLimit = errors.New("financial limit must be a non-negative amount")

// FinancialLimit is an approval ceiling carried by designations and users.
//
// A nil Amount means the holder has no limit. That is deliberately not the
// same as a limit of zero, which allows nothing.
type FinancialLimit struct {
	Amount *decimal.Decimal
}

// NoFinancialLimit is the explicit "no limit" value.
var NoFinancialLimit = FinancialLimit{}

// ParseFinancialLimit reads a limit from a decoded JSON value.
// nil, "" and "none" mean no limit.
func ParseFinancialLimit(v any) (FinancialLimit, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return NoFinancialLimit, nil
	case FinancialLimit:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "none") {
			return NoFinancialLimit, nil
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return NoFinancialLimit, fmt.Errorf("%w: %q", ErrInvalidFinancialLimit, s)
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(t)
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return NoFinancialLimit, fmt.Errorf("%w: %q", ErrInvalidFinancialLimit, t.String())
		}
		d = parsed
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	default:
		return NoFinancialLimit, fmt.Errorf("%w: unsupported type %T", ErrInvalidFinancialLimit, v)
	}
	if d.IsNegative() {
		return NoFinancialLimit, ErrInvalidFinancialLimit
	}
	return FinancialLimit{Amount: &d}, nil
}

// Unlimited reports whether no ceiling applies.
func (l FinancialLimit) Unlimited() bool { return l.Amount == nil }

func (l FinancialLimit) String() string {
	if l.Amount == nil {
		return "none"
	}
	return l.Amount.String()
}

// MarshalJSON writes null for no limit and a decimal string otherwise.
func (l FinancialLimit) MarshalJSON() ([]byte, error) {
	if l.Amount == nil {
		return []byte("null"), nil
	}
	return json.Marshal(l.Amount.String())
}
