package projection

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(rows []models.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func sample() []models.Record {
	return []models.Record{
		{ID: "3", Name: "Operations", Status: "active", CreatedAt: day("2024-03-01")},
		{ID: "1", Name: "Finance", Status: "active", CreatedAt: day("2024-01-01")},
		{ID: "2", Name: "Équipe Légale", Status: "inactive", CreatedAt: day("2024-02-01"),
			Fields: map[string]any{"email": "legal@acme.test"}},
		{ID: "10", Name: "Facilities", Status: "active", CreatedAt: day("2024-01-01")},
		{ID: "4", Name: "Undated", Status: "active"},
	}
}

func TestProject_FinanceScenario(t *testing.T) {
	res, err := normalize.Records([]byte(`{ "departments": [{"id":1,"name":"Finance","createdAt":"2024-01-01"}] }`), "departments")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	rows := New("").Project(res.Records, Spec{Text: map[string]string{"name": "fin"}})
	if len(rows) != 1 || rows[0].ID != "1" {
		t.Fatalf("got %v, want exactly id 1", ids(rows))
	}
}

func TestProject_DefaultOrder(t *testing.T) {
	rows := New(models.FieldCreatedAt).Project(sample(), Spec{})
	want := []string{"1", "10", "2", "3", "4"}
	if got := ids(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
}

func TestProject_SortOverride(t *testing.T) {
	rows := New("").Project(sample(), Spec{Sort: &Sort{Field: "name", Descending: true}})
	want := []string{"4", "3", "1", "10", "2"}
	if got := ids(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}

	// Missing values stay last even when descending.
	rows = New("").Project(sample(), Spec{Sort: &Sort{Field: models.FieldCreatedAt, Descending: true}})
	if got := ids(rows); got[len(got)-1] != "4" {
		t.Errorf("undated row should be last, got %v", got)
	}
}

func TestProject_DateRangeExcludesUndated(t *testing.T) {
	spec := Spec{DateRange: &DateRange{Start: day("2024-01-01"), End: day("2024-02-01")}}
	rows := New("").Project(sample(), spec)
	want := []string{"1", "10", "2"}
	if got := ids(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProject_DateRangeUsesWrittenCalendarDate(t *testing.T) {
	recs := []models.Record{
		{ID: "late", Fields: map[string]any{"startDate": "2024-03-01T23:30:00-05:00"}},
		{ID: "early", Fields: map[string]any{"startDate": "2024-03-02T01:00:00+05:00"}},
		{ID: "plain", Fields: map[string]any{"startDate": "2024-03-01"}},
	}
	dr := &DateRange{Start: day("2024-03-01"), End: day("2024-03-02").Add(-time.Nanosecond)}
	rows := New("startDate").Project(recs, Spec{DateRange: dr})
	if got := ids(rows); !reflect.DeepEqual(got, []string{"plain", "late"}) && !reflect.DeepEqual(got, []string{"late", "plain"}) {
		t.Errorf("got %v, want late and plain only", got)
	}
}

func TestProject_MalformedDateExcluded(t *testing.T) {
	recs := []models.Record{
		{ID: "a", Fields: map[string]any{"startDate": "not a date"}},
		{ID: "b", Fields: map[string]any{"startDate": "2024-06-01"}},
	}
	rows := New("startDate").Project(recs, Spec{DateRange: &DateRange{Start: day("2024-01-01")}})
	if got := ids(rows); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("got %v", got)
	}
}

func TestProject_TextIgnoresCaseAndDiacritics(t *testing.T) {
	rows := New("").Project(sample(), Spec{Text: map[string]string{"name": "EQUIPE"}})
	if got := ids(rows); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("got %v", got)
	}
}

func TestProject_Status(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{"", 5},
		{"all", 5},
		{"active", 4},
		{"INACTIVE", 1},
		{"archived", 0},
	}
	for _, tt := range tests {
		rows := New("").Project(sample(), Spec{Status: tt.status})
		if len(rows) != tt.want {
			t.Errorf("Status(%q): got %d rows, want %d", tt.status, len(rows), tt.want)
		}
	}
}

func TestProject_Search(t *testing.T) {
	rows := New("").Project(sample(), Spec{Search: "fnce"})
	if got := ids(rows); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("fuzzy name: got %v", got)
	}
	rows = New("").Project(sample(), Spec{Search: "legal@"})
	if got := ids(rows); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("email: got %v", got)
	}
}

func TestProject_DoesNotModifyInput(t *testing.T) {
	in := sample()
	before := ids(in)
	_ = New("").Project(in, Spec{Sort: &Sort{Field: "name"}})
	if got := ids(in); !reflect.DeepEqual(got, before) {
		t.Errorf("input reordered: %v", got)
	}
}

func TestSpecKey(t *testing.T) {
	a := Spec{Text: map[string]string{"name": "Fin", "email": "x"}, Status: "all"}
	b := Spec{Text: map[string]string{"email": "x", "name": "fin", "title": " "}}
	if a.Key() != b.Key() {
		t.Errorf("equivalent specs differ: %q vs %q", a.Key(), b.Key())
	}
	c := Spec{Text: map[string]string{"name": "fin"}}
	if a.Key() == c.Key() {
		t.Error("different specs share a key")
	}
}

func TestMemo_ReferenceStable(t *testing.T) {
	m := NewMemo(New(""))
	recs := sample()
	spec := Spec{Status: "active"}

	first := m.View(1, recs, spec)
	second := m.View(1, recs, Spec{Status: "active"})
	if len(first) == 0 || &first[0] != &second[0] {
		t.Fatal("unchanged inputs should return the same slice")
	}

	third := m.View(2, recs, spec)
	if &first[0] == &third[0] {
		t.Error("version change should recompute")
	}
	fourth := m.View(2, recs, Spec{Status: "inactive"})
	if len(fourth) != 1 {
		t.Errorf("spec change: got %d rows", len(fourth))
	}
}

var words = []string{"Finance", "Operations", "Legal", "Facilities", "Sales", "Research"}

func build(vals []int) []models.Record {
	statuses := []string{"active", "inactive", "pending"}
	base := day("2024-01-01")
	out := make([]models.Record, len(vals))
	for i, v := range vals {
		out[i] = models.Record{
			ID:        strconv.Itoa(i),
			Name:      words[v%len(words)],
			Status:    statuses[v%len(statuses)],
			CreatedAt: base.Add(time.Duration(v%97) * 24 * time.Hour),
		}
	}
	return out
}

func TestProject_ConjunctiveLaw(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)
	e := New("")

	properties.Property("status then text equals both at once", prop.ForAll(
		func(vals []int, s, w int) bool {
			c := build(vals)
			status := []string{"active", "inactive", "pending"}[s]
			needle := words[w][:3]
			a := Spec{Status: status}
			b := Spec{Text: map[string]string{"name": needle}}
			both := Spec{Status: status, Text: map[string]string{"name": needle}}
			return reflect.DeepEqual(e.Project(c, both), e.Project(e.Project(c, a), b))
		},
		gen.SliceOf(gen.IntRange(0, 999)),
		gen.IntRange(0, 2),
		gen.IntRange(0, len(words)-1),
	))

	properties.Property("date range then search equals both at once", prop.ForAll(
		func(vals []int, from, span, w int) bool {
			c := build(vals)
			start := day("2024-01-01").Add(time.Duration(from) * 24 * time.Hour)
			dr := &DateRange{Start: start, End: start.Add(time.Duration(span) * 24 * time.Hour)}
			q := words[w][:2]
			both := Spec{DateRange: dr, Search: q}
			return reflect.DeepEqual(e.Project(c, both), e.Project(e.Project(c, Spec{DateRange: dr}), Spec{Search: q}))
		},
		gen.SliceOf(gen.IntRange(0, 999)),
		gen.IntRange(0, 96),
		gen.IntRange(0, 30),
		gen.IntRange(0, len(words)-1),
	))

	properties.Property("projection is deterministic", prop.ForAll(
		func(vals []int) bool {
			c := build(vals)
			return reflect.DeepEqual(e.Project(c, Spec{}), e.Project(c, Spec{}))
		},
		gen.SliceOf(gen.IntRange(0, 999)),
	))

	properties.TestingRun(t)
}
