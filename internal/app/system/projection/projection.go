// Package projection derives the visible rows of a resource view from its
// canonical record list. Projection is pure: the same records and Spec
// always produce the same rows in the same order.
package projection

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DateRange restricts rows to an inclusive interval of the natural date
// field. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Active reports whether either bound is set.
func (d *DateRange) Active() bool {
	return d != nil && (!d.Start.IsZero() || !d.End.IsZero())
}

func (d *DateRange) contains(t time.Time) bool {
	if !d.Start.IsZero() && t.Before(d.Start) {
		return false
	}
	if !d.End.IsZero() && t.After(d.End) {
		return false
	}
	return true
}

// Sort overrides the default ordering.
type Sort struct {
	Field      string
	Descending bool
}

// Spec is a declarative filter and sort request. Every active filter must
// hold for a row to be kept.
type Spec struct {
	DateRange *DateRange

	// Text maps a canonical field to a substring it must contain.
	// Matching ignores case and diacritics. Empty substrings are ignored.
	Text map[string]string

	// Status keeps rows whose status equals this value. "" and "all" keep
	// everything.
	Status string

	// Search is a fuzzy match against name, title and email.
	Search string

	Sort *Sort
}

// Key is a canonical encoding of the spec, equal for equal specs.
func (s Spec) Key() string {
	var b strings.Builder
	if s.DateRange.Active() {
		fmt.Fprintf(&b, "d:%d:%d;", unixOrZero(s.DateRange.Start), unixOrZero(s.DateRange.End))
	}
	if len(s.Text) > 0 {
		keys := make([]string, 0, len(s.Text))
		for k := range s.Text {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := strings.TrimSpace(s.Text[k])
			if v == "" {
				continue
			}
			fmt.Fprintf(&b, "t:%s=%s;", k, text.Fold(v))
		}
	}
	if st := statusFilter(s.Status); st != "" {
		fmt.Fprintf(&b, "s:%s;", st)
	}
	if q := strings.TrimSpace(s.Search); q != "" {
		fmt.Fprintf(&b, "q:%s;", text.Fold(q))
	}
	if s.Sort != nil && s.Sort.Field != "" {
		fmt.Fprintf(&b, "o:%s:%t;", s.Sort.Field, s.Sort.Descending)
	}
	return b.String()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func statusFilter(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}

// searchFields are the fields the fuzzy search looks at.
var searchFields = []string{models.FieldName, "title", "email"}

// Engine projects records of one resource type.
type Engine struct {
	// DateField is the natural ordering and range-filter field.
	DateField string
}

// New returns an engine ordering by dateField, or createdAt when empty.
func New(dateField string) Engine {
	if dateField == "" {
		dateField = models.FieldCreatedAt
	}
	return Engine{DateField: dateField}
}

// ForResource returns the engine for a resource descriptor.
func ForResource(rt models.ResourceType) Engine {
	return New(rt.DateField)
}

// Project filters and orders records. The input slice is never modified and
// the result never aliases it.
func (e Engine) Project(records []models.Record, spec Spec) []models.Record {
	m := newMatcher(e.DateField, spec)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	e.order(out, spec.Sort)
	return out
}

// matcher holds a spec with its needles pre-folded.
type matcher struct {
	dateField string
	dates     *DateRange
	text      map[string]string
	status    string
	search    string
}

func newMatcher(dateField string, spec Spec) matcher {
	m := matcher{dateField: dateField, status: statusFilter(spec.Status)}
	if spec.DateRange.Active() {
		m.dates = spec.DateRange
	}
	for field, needle := range spec.Text {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			continue
		}
		if m.text == nil {
			m.text = make(map[string]string, len(spec.Text))
		}
		m.text[field] = text.Fold(needle)
	}
	if q := strings.TrimSpace(spec.Search); q != "" {
		m.search = q
	}
	return m
}

func (m matcher) match(r models.Record) bool {
	if m.dates != nil {
		// Dates compare as written so the range agrees with the calendar.
		t, ok := r.WallTime(m.dateField)
		if !ok || !m.dates.contains(t) {
			return false
		}
	}
	for field, needle := range m.text {
		v, ok := r.Get(field)
		if !ok || !strings.Contains(text.Fold(display(v)), needle) {
			return false
		}
	}
	if m.status != "" && !strings.EqualFold(r.Status, m.status) {
		return false
	}
	if m.search != "" && !m.fuzzy(r) {
		return false
	}
	return true
}

func (m matcher) fuzzy(r models.Record) bool {
	for _, f := range searchFields {
		v, ok := r.Get(f)
		if !ok {
			continue
		}
		if fuzzy.MatchNormalizedFold(m.search, display(v)) {
			return true
		}
	}
	return false
}

// display renders a field value as the text a user would see.
func display(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
