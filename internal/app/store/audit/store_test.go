package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    "u1",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}
	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be auto-set")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour)
	events := []audit.Event{
		{Category: audit.CategoryAdmin, EventType: audit.EventRecordCreated, CompanyID: "c1", UserID: "u1", Resource: "departments", TargetID: "4", Success: true, Timestamp: base},
		{Category: audit.CategoryAdmin, EventType: audit.EventRecordDeleted, CompanyID: "c1", UserID: "u1", Resource: "departments", TargetID: "5", Success: false, FailureReason: "Internal Server Error", Timestamp: base.Add(time.Minute)},
		{Category: audit.CategoryAdmin, EventType: audit.EventRecordCreated, CompanyID: "c2", UserID: "u2", Resource: "events", TargetID: "9", Success: true, Timestamp: base.Add(2 * time.Minute)},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Email: "x@y.test", Success: false, Timestamp: base.Add(3 * time.Minute)},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"company", audit.QueryFilter{CompanyID: "c1"}, 2},
		{"category", audit.QueryFilter{Category: audit.CategoryAdmin}, 3},
		{"event type", audit.QueryFilter{EventType: audit.EventRecordCreated}, 2},
		{"resource", audit.QueryFilter{Resource: "events"}, 1},
		{"limit", audit.QueryFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: "u1"})
	if err != nil || n != 2 {
		t.Errorf("CountByFilter: %d %v", n, err)
	}

	recent, err := store.GetRecent(ctx, 1)
	if err != nil || len(recent) != 1 || recent[0].EventType != audit.EventLoginFailed {
		t.Errorf("GetRecent should return newest first: %+v %v", recent, err)
	}

	failed, err := store.GetFailedLogins(ctx, base, 10)
	if err != nil || len(failed) != 1 {
		t.Errorf("GetFailedLogins: %d %v", len(failed), err)
	}
}
