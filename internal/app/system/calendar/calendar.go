// Package calendar lays meetings out by day for the meetings calendar.
//
// A meeting is shown on the calendar date it is stored with. Dates carrying
// an offset are not shifted to another zone first.
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

const dayLayout = "2006-01-02"

// Where a meeting's time of day came from.
const (
	SourceNone  = ""
	SourceField = "time" // the meeting's own time field
	SourceDate  = "date" // the clock part of the date value
)

// Guest is one invitee of a meeting.
type Guest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Entry is a meeting placed on a day.
type Entry struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Date   string  `json:"date"`            // YYYY-MM-DD as stored
	Clock  string  `json:"clock,omitempty"` // HH:MM, 24 hour
	Source string  `json:"timeSource,omitempty"`
	Guests []Guest `json:"guests,omitempty"`

	// TimeConflict is set when the time field and the date's own clock
	// disagree. Clock then holds the time field's value and DateClock the
	// other one.
	TimeConflict bool   `json:"timeConflict,omitempty"`
	DateClock    string `json:"dateClock,omitempty"`

	minutes int // -1 when Clock is empty
}

// Day is one calendar day and its meetings in time order.
type Day struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	Entries []Entry `json:"entries"`
}

// MonthView is a whole month of days.
type MonthView struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Title string `json:"title"`
	Days  []Day  `json:"days"`
	Total int    `json:"total"`

	// Undated counts meetings whose date could not be read. They are left
	// off the calendar.
	Undated int `json:"undated"`
}

// Month groups meetings falling in year/month by day. Every day of the
// month is present, with or without meetings. A non-empty guest keeps only
// meetings with a guest whose name or email contains it, ignoring case and
// accents.
func Month(meetings []models.Record, year int, month time.Month, guest string) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	entries, undated := Between(meetings, first, last, guest)
	byDay := make(map[string][]Entry, len(entries))
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	v := MonthView{
		Year:    first.Year(),
		Month:   int(first.Month()),
		Title:   first.Format("January 2006"),
		Total:   len(entries),
		Undated: undated,
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		es := byDay[key]
		if es == nil {
			es = []Entry{}
		}
		v.Days = append(v.Days, Day{Date: key, Weekday: d.Weekday().String(), Entries: es})
	}
	return v
}

// Between returns the meetings stored on a date from start to end
// inclusive, ordered by date then time. Only the calendar dates of start
// and end matter. The second result counts meetings without a readable
// date.
func Between(meetings []models.Record, start, end time.Time, guest string) ([]Entry, int) {
	from := start.Format(dayLayout)
	to := end.Format(dayLayout)
	needle := text.Fold(strings.TrimSpace(guest))

	out := []Entry{}
	undated := 0
	for _, m := range meetings {
		e, ok := entryOf(m)
		if !ok {
			undated++
			continue
		}
		if e.Date < from || e.Date > to {
			continue
		}
		if needle != "" && !hasGuest(e.Guests, needle) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		// Meetings without a time go after timed ones.
		if a.minutes != b.minutes {
			if a.minutes < 0 || b.minutes < 0 {
				return b.minutes < 0
			}
			return a.minutes < b.minutes
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	return out, undated
}

func entryOf(m models.Record) (Entry, bool) {
	raw, _ := m.Get("date")
	date, dateClock, ok := storedDate(raw)
	if !ok {
		return Entry{}, false
	}

	e := Entry{
		ID:      m.ID,
		Title:   m.Name,
		Date:    date,
		Guests:  guestsOf(m),
		minutes: -1,
	}

	fieldClock := ""
	if v, ok := m.Get("time"); ok {
		if s, ok := v.(string); ok {
			fieldClock, _ = ParseClock(s)
		}
	}

	switch {
	case fieldClock != "":
		e.Clock, e.Source = fieldClock, SourceField
		if dateClock != "" && dateClock != fieldClock {
			e.TimeConflict = true
			e.DateClock = dateClock
		}
	case dateClock != "":
		e.Clock, e.Source = dateClock, SourceDate
	}
	if e.Clock != "" {
		t, _ := time.Parse("15:04", e.Clock)
		e.minutes = t.Hour()*60 + t.Minute()
	}
	return e, true
}

// storedDate returns the calendar date of v as written, and its clock when
// the value carries one.
func storedDate(v any) (date, clock string, ok bool) {
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if len(s) >= len(dayLayout) {
			if _, err := time.Parse(dayLayout, s[:len(dayLayout)]); err == nil {
				date = s[:len(dayLayout)]
				if models.HasClock(s) {
					clock = clockOf(s)
				}
				return date, clock, true
			}
		}
	}
	t, ok := models.ParseTime(v)
	if !ok {
		return "", "", false
	}
	// Epoch values carry no zone of their own; read them in UTC.
	return t.Format(dayLayout), t.Format("15:04"), true
}

// clockOf reads HH:MM from a date-time string without converting zones.
func clockOf(s string) string {
	rest := s[len(dayLayout):]
	rest = strings.TrimLeft(rest, "T ")
	if len(rest) < 5 {
		return ""
	}
	c, ok := ParseClock(rest[:5])
	if !ok {
		return ""
	}
	return c
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3 PM",
	"3PM",
}

// ParseClock reads a time of day such as "3:30 PM", "3:30pm" or "15:30"
// and returns it as "15:30".
func ParseClock(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return "", false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

func guestsOf(m models.Record) []Guest {
	var raw []any
	for _, key := range []string{"guests", "attendees"} {
		if v, ok := m.Get(key); ok {
			if list, ok := v.([]any); ok {
				raw = list
				break
			}
		}
	}

	var out []Guest
	for _, g := range raw {
		switch v := g.(type) {
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if strings.Contains(v, "@") {
				out = append(out, Guest{Email: v})
			} else {
				out = append(out, Guest{Name: v})
			}
		case map[string]any:
			gu := Guest{
				Name:  firstString(v, "name", "fullName", "full_name"),
				Email: firstString(v, "email"),
			}
			if gu.Name != "" || gu.Email != "" {
				out = append(out, gu)
			}
		}
	}
	return out
}

func hasGuest(guests []Guest, needle string) bool {
	for _, g := range guests {
		if strings.Contains(text.Fold(g.Name), needle) || strings.Contains(text.Fold(g.Email), needle) {
			return true
		}
	}
	return false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
