package calendar_test

import (
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/calendar"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

func meeting(id, title string, fields map[string]any) models.Record {
	return models.Record{ID: id, Name: title, Fields: fields}
}

func TestMonth_EveryDayPresent(t *testing.T) {
	v := calendar.Month(nil, 2024, time.February, "")

	if len(v.Days) != 29 {
		t.Fatalf("expected 29 days in February 2024, got %d", len(v.Days))
	}
	if v.Days[0].Date != "2024-02-01" || v.Days[28].Date != "2024-02-29" {
		t.Errorf("unexpected day range %s..%s", v.Days[0].Date, v.Days[28].Date)
	}
	if v.Days[0].Weekday != "Thursday" {
		t.Errorf("expected Thursday, got %s", v.Days[0].Weekday)
	}
	if v.Days[0].Entries == nil {
		t.Error("expected empty, non-nil entries")
	}
	if v.Title != "February 2024" {
		t.Errorf("unexpected title %q", v.Title)
	}
}

func TestMonth_GroupsByStoredDate(t *testing.T) {
	ms := []models.Record{
		meeting("1", "Kickoff", map[string]any{"date": "2024-05-03"}),
		// Stored late in the evening at +05:30; stays on the 3rd.
		meeting("2", "Review", map[string]any{"date": "2024-05-03T01:00:00+05:30"}),
		meeting("3", "Retro", map[string]any{"date": "2024-05-31T18:00:00Z"}),
		meeting("4", "Next month", map[string]any{"date": "2024-06-01"}),
		meeting("5", "Broken", map[string]any{"date": "soon"}),
		meeting("6", "No date", map[string]any{}),
	}

	v := calendar.Month(ms, 2024, time.May, "")

	if v.Total != 3 {
		t.Errorf("expected 3 meetings in May, got %d", v.Total)
	}
	if v.Undated != 2 {
		t.Errorf("expected 2 undated meetings, got %d", v.Undated)
	}
	third := v.Days[2]
	if len(third.Entries) != 2 {
		t.Fatalf("expected 2 meetings on the 3rd, got %d", len(third.Entries))
	}
	// Timed meetings come before untimed ones.
	if third.Entries[0].ID != "2" || third.Entries[1].ID != "1" {
		t.Errorf("unexpected order %s, %s", third.Entries[0].ID, third.Entries[1].ID)
	}
	if third.Entries[0].Clock != "01:00" || third.Entries[0].Source != calendar.SourceDate {
		t.Errorf("expected clock from date, got %q (%s)", third.Entries[0].Clock, third.Entries[0].Source)
	}
	if len(v.Days[30].Entries) != 1 {
		t.Errorf("expected the 31st to hold one meeting")
	}
}

func TestTimeResolution(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]any
		clock    string
		source   string
		conflict bool
	}{
		{"time field 12h", map[string]any{"date": "2024-05-03", "time": "3:30 PM"}, "15:30", calendar.SourceField, false},
		{"time field 24h", map[string]any{"date": "2024-05-03", "time": "09:15"}, "09:15", calendar.SourceField, false},
		{"time field lower pm", map[string]any{"date": "2024-05-03", "time": "11:05pm"}, "23:05", calendar.SourceField, false},
		{"date only clock", map[string]any{"date": "2024-05-03T14:00:00Z"}, "14:00", calendar.SourceDate, false},
		{"both agree", map[string]any{"date": "2024-05-03T14:00:00Z", "time": "2:00 PM"}, "14:00", calendar.SourceField, false},
		{"both disagree", map[string]any{"date": "2024-05-03T14:00:00Z", "time": "10:00 AM"}, "10:00", calendar.SourceField, true},
		{"unreadable time field", map[string]any{"date": "2024-05-03T14:00:00Z", "time": "after lunch"}, "14:00", calendar.SourceDate, false},
		{"no time at all", map[string]any{"date": "2024-05-03"}, "", calendar.SourceNone, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := calendar.Month([]models.Record{meeting("1", "M", tc.fields)}, 2024, time.May, "")
			es := v.Days[2].Entries
			if len(es) != 1 {
				t.Fatalf("expected one entry on the 3rd, got %d", len(es))
			}
			e := es[0]
			if e.Clock != tc.clock {
				t.Errorf("clock: got %q, want %q", e.Clock, tc.clock)
			}
			if e.Source != tc.source {
				t.Errorf("source: got %q, want %q", e.Source, tc.source)
			}
			if e.TimeConflict != tc.conflict {
				t.Errorf("conflict: got %v, want %v", e.TimeConflict, tc.conflict)
			}
			if tc.conflict && e.DateClock != "14:00" {
				t.Errorf("expected the date's clock to be kept, got %q", e.DateClock)
			}
		})
	}
}

func TestGuestFilter(t *testing.T) {
	ms := []models.Record{
		meeting("1", "Budget", map[string]any{"date": "2024-05-06", "guests": []any{"Zoë Park", "ops@acme.test"}}),
		meeting("2", "Hiring", map[string]any{"date": "2024-05-07", "guests": []any{map[string]any{"fullName": "Asha Rao", "email": "asha@acme.test"}}}),
		meeting("3", "Solo", map[string]any{"date": "2024-05-08"}),
	}

	tests := []struct {
		guest string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"zoe", []string{"1"}},
		{"OPS@", []string{"1"}},
		{"asha", []string{"2"}},
		{"nobody", nil},
	}

	for _, tc := range tests {
		t.Run(tc.guest, func(t *testing.T) {
			got, _ := calendar.Between(ms, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), tc.guest)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tc.want))
			}
			for i, e := range got {
				if e.ID != tc.want[i] {
					t.Errorf("entry %d: got %s, want %s", i, e.ID, tc.want[i])
				}
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3:04 PM", "15:04", true},
		{"12:00 AM", "00:00", true},
		{"12:30 pm", "12:30", true},
		{"7 a.m.", "07:00", true},
		{"18:45", "18:45", true},
		{"18:45:10", "18:45", true},
		{"", "", false},
		{"25:00", "", false},
	}
	for _, tc := range tests {
		got, ok := calendar.ParseClock(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseClock(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
