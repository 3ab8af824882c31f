package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.uber.org/zap"
)

type listBody struct {
	Items []struct {
		EventType string `json:"eventType"`
		CompanyID string `json:"companyId"`
		Resource  string `json:"resource"`
	} `json:"items"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	HasNext    bool     `json:"hasNext"`
	EventTypes []string `json:"eventTypes"`
}

func newTestHandler(t *testing.T) (*auditlog.Handler, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := zap.NewNop()
	return auditlog.NewHandler(store, uierrors.NewErrorLogger(logger), logger), store
}

func seed(t *testing.T, store *audit.Store, events ...audit.Event) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func serve(t *testing.T, h *auditlog.Handler, req *http.Request) listBody {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	return body
}

func sampleEvents() []audit.Event {
	now := time.Now().UTC()
	return []audit.Event{
		{Timestamp: now.Add(-3 * time.Hour), CompanyID: "c1", Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Timestamp: now.Add(-2 * time.Hour), CompanyID: "c1", Category: audit.CategoryAdmin, EventType: audit.EventRecordCreated, Resource: "departments", Success: true},
		{Timestamp: now.Add(-1 * time.Hour), CompanyID: "c2", Category: audit.CategoryAdmin, EventType: audit.EventRecordDeleted, Resource: "locations", Success: true},
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/audit", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeList_WebsiteAdminSeesAll(t *testing.T) {
	h, store := newTestHandler(t)
	seed(t, store, sampleEvents()...)

	body := serve(t, h, testutil.NewAuthenticatedRequest("GET", "/audit", testutil.WebsiteAdminUser()))
	if body.Total != 3 || len(body.Items) != 3 {
		t.Fatalf("expected 3 events, got %d (%d shown)", body.Total, len(body.Items))
	}
	if body.Items[0].EventType != audit.EventRecordDeleted {
		t.Errorf("newest first: got %q", body.Items[0].EventType)
	}
}

func TestServeList_CompanyAdminScoped(t *testing.T) {
	h, store := newTestHandler(t)
	seed(t, store, sampleEvents()...)

	body := serve(t, h, testutil.NewAuthenticatedRequest("GET", "/audit", testutil.CompanyAdminUser("c1")))
	if body.Total != 2 {
		t.Fatalf("expected 2 events for c1, got %d", body.Total)
	}
	for _, it := range body.Items {
		if it.CompanyID != "c1" {
			t.Errorf("leaked event from %q", it.CompanyID)
		}
	}
}

func TestServeList_WithFilters(t *testing.T) {
	h, store := newTestHandler(t)
	seed(t, store, sampleEvents()...)

	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -1).Format("2006-01-02"), now.Format("2006-01-02")
	req := testutil.NewAuthenticatedRequest("GET",
		"/audit?category=admin&resource=departments&start_date="+from+"&end_date="+to, testutil.WebsiteAdminUser())
	body := serve(t, h, req)

	if body.Total != 1 || body.Items[0].Resource != "departments" {
		t.Errorf("unexpected filter result %+v", body)
	}
	if len(body.EventTypes) != 3 {
		t.Errorf("admin category lists 3 event types, got %v", body.EventTypes)
	}
}

func TestServeList_Pagination(t *testing.T) {
	h, store := newTestHandler(t)
	events := make([]audit.Event, 0, 60)
	for i := 0; i < 60; i++ {
		events = append(events, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true})
	}
	seed(t, store, events...)

	body := serve(t, h, testutil.NewAuthenticatedRequest("GET", "/audit", testutil.WebsiteAdminUser()))
	if len(body.Items) != 50 || body.TotalPages != 2 || !body.HasNext {
		t.Errorf("page 1: %d items, %d pages, hasNext %v", len(body.Items), body.TotalPages, body.HasNext)
	}

	body = serve(t, h, testutil.NewAuthenticatedRequest("GET", "/audit?page=2", testutil.WebsiteAdminUser()))
	if len(body.Items) != 10 || body.Page != 2 || body.HasNext {
		t.Errorf("page 2: %d items, page %d, hasNext %v", len(body.Items), body.Page, body.HasNext)
	}
}

func TestRoutes_RoleRestricted(t *testing.T) {
	h, _ := newTestHandler(t)
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	router := auditlog.Routes(h, sessionMgr)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.HODUser("c1")))
	rec.AssertStatus(t, http.StatusForbidden)
}
