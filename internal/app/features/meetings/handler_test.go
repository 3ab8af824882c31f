package meetings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/features/meetings"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.uber.org/zap"
)

type calendarBody struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Title string `json:"title"`
	Prev  string `json:"prev"`
	Next  string `json:"next"`
	Total int    `json:"total"`
	Days  []struct {
		Date    string `json:"date"`
		Entries []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Clock        string `json:"clock"`
			TimeConflict bool   `json:"timeConflict"`
		} `json:"entries"`
	} `json:"days"`
}

func setup(t *testing.T) (*meetings.Handler, *testutil.FakeBackend, *http.Request) {
	t.Helper()
	fake := testutil.NewFakeBackend(t)
	fake.Seed(models.ResourceMeetings,
		testutil.Meeting("m1", "Budget review", "2024-05-14", "15:30", "Asha Rao"),
		testutil.Meeting("m2", "Standup", "2024-05-14T09:00:00Z", "", "Ravi Iyer"),
		testutil.Meeting("m3", "Kickoff", "2024-05-02T08:00:00", "10:00"),
		testutil.Meeting("m4", "Planning", "2024-06-01", ""),
	)
	client := fake.Client(t)
	registry := resourcesession.NewRegistry(context.Background(), resourcesession.RegistryConfig{Client: client})
	t.Cleanup(registry.CloseAll)

	h := meetings.NewHandler(registry, nil, zap.NewNop())
	sess := testutil.Resolve(t, client)
	newReq := func(target string) *http.Request {
		return testutil.WithSession(httptest.NewRequest("GET", target, nil), "s1", sess)
	}
	return h, fake, newReq("/meetings/calendar?month=2024-05")
}

func serve(t *testing.T, h *meetings.Handler, req *http.Request) calendarBody {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeCalendar(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var body calendarBody
	rec.DecodeJSON(t, &body)
	return body
}

func TestServeCalendar_Month(t *testing.T) {
	h, _, req := setup(t)

	body := serve(t, h, req)
	if body.Year != 2024 || body.Month != 5 || body.Title != "May 2024" {
		t.Fatalf("unexpected month %d/%d %q", body.Year, body.Month, body.Title)
	}
	if len(body.Days) != 31 {
		t.Fatalf("May has 31 days, got %d", len(body.Days))
	}
	if body.Prev != "2024-04" || body.Next != "2024-06" {
		t.Errorf("navigation: prev %q next %q", body.Prev, body.Next)
	}
	if body.Total != 3 {
		t.Errorf("total: got %d, want 3", body.Total)
	}

	day := body.Days[13]
	if day.Date != "2024-05-14" || len(day.Entries) != 2 {
		t.Fatalf("unexpected day %+v", day)
	}
	if day.Entries[0].Title != "Standup" || day.Entries[1].Title != "Budget review" {
		t.Errorf("entries should be in time order, got %+v", day.Entries)
	}

	kickoff := body.Days[1].Entries
	if len(kickoff) != 1 || kickoff[0].Clock != "10:00" || !kickoff[0].TimeConflict {
		t.Errorf("time field should win and flag the conflict, got %+v", kickoff)
	}
}

func TestServeCalendar_GuestFilter(t *testing.T) {
	h, _, req := setup(t)
	req.URL.RawQuery = "month=2024-05&guest=ravi"

	body := serve(t, h, req)
	if body.Total != 1 {
		t.Fatalf("guest filter: got %d meetings", body.Total)
	}
	if e := body.Days[13].Entries; len(e) != 1 || e[0].ID != "m2" {
		t.Errorf("expected only the standup, got %+v", e)
	}
}

func TestServeCalendar_SharesLoadedView(t *testing.T) {
	h, fake, req := setup(t)

	serve(t, h, req)
	next := req.Clone(req.Context())
	next.URL.RawQuery = "month=2024-06"
	body := serve(t, h, next)

	if body.Total != 1 {
		t.Errorf("June: got %d meetings", body.Total)
	}
	if n := fake.Calls("GET", models.ResourceMeetings); n != 1 {
		t.Errorf("changing month must not refetch; backend saw %d lists", n)
	}
}

func TestServeCalendar_DefaultsToCurrentMonth(t *testing.T) {
	h, _, req := setup(t)
	h.SetNow(func() time.Time { return time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC) })
	req.URL.RawQuery = ""

	body := serve(t, h, req)
	if body.Month != 6 || len(body.Days) != 30 {
		t.Errorf("expected June, got month %d with %d days", body.Month, len(body.Days))
	}
}

func TestServeCalendar_BadMonth(t *testing.T) {
	h, _, req := setup(t)
	req.URL.RawQuery = "month=May"

	rec := testutil.NewRecorder()
	h.ServeCalendar(rec, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "month")
}

func TestServeCalendar_Unauthenticated(t *testing.T) {
	h := meetings.NewHandler(nil, nil, zap.NewNop())
	req := httptest.NewRequest("GET", "/meetings/calendar", nil)
	req.Header.Set("Accept", "text/html")

	rec := testutil.NewRecorder()
	h.ServeCalendar(rec, req)
	if !strings.HasPrefix(rec.Header().Get("Location"), auth.LoginPath) {
		t.Errorf("expected a redirect to sign in, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
