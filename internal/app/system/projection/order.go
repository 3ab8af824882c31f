package projection

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// order sorts rows in place. Without an override rows ascend by the natural
// date field. Rows missing the sort value go last in either direction, and
// ties always fall back to ascending id.
func (e Engine) order(rows []models.Record, override *Sort) {
	field, desc := e.DateField, false
	if override != nil && override.Field != "" {
		field, desc = override.Field, override.Descending
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareField(rows[i], rows[j], field)
		if c == 0 {
			return compareID(rows[i].ID, rows[j].ID) < 0
		}
		if c == missingLast || c == -missingLast {
			return c < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// missingLast is returned by compareField when exactly one side lacks a
// value. It is never inverted by a descending sort.
const missingLast = 2

func compareField(a, b models.Record, field string) int {
	av, aok := a.Get(field)
	bv, bok := b.Get(field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return missingLast
	case !bok:
		return -missingLast
	}

	if at, ok := models.ParseTime(av); ok {
		if bt, ok := models.ParseTime(bv); ok {
			return compareTime(at, bt)
		}
	}
	if an, ok := number(av); ok {
		if bn, ok := number(bv); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(text.Fold(display(av)), text.Fold(display(bv)))
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case models.FinancialLimit:
		if t.Amount == nil {
			return 0, false
		}
		return t.Amount.InexactFloat64(), true
	}
	return 0, false
}

// compareID orders numeric ids numerically and everything else bytewise.
func compareID(a, b string) int {
	if ai, err := strconv.ParseUint(a, 10, 64); err == nil {
		if bi, err := strconv.ParseUint(b, 10, 64); err == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a, b)
}
