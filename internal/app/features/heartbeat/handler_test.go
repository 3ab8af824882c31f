package heartbeat_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/features/heartbeat"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type heartbeatBody struct {
	Views       int `json:"views"`
	InactiveTTL int `json:"inactiveTtlSeconds"`
}

func TestServeHeartbeat_TouchesSessionViews(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	client := fake.Client(t)
	sess := testutil.Resolve(t, client)

	registry := resourcesession.NewRegistry(context.Background(), resourcesession.RegistryConfig{Client: client})
	t.Cleanup(func() { registry.CloseAll() })
	for _, name := range []string{models.ResourceDepartments, models.ResourceMeetings} {
		rt, _ := models.LookupResourceType(name)
		registry.Get("s1", sess, rt)
	}

	h := heartbeat.NewHandler(registry, 30*time.Minute, zap.NewNop())
	rec := testutil.NewRecorder()
	h.ServeHeartbeat(rec, testutil.WithSession(testutil.NewRequest("POST", "/api/heartbeat"), "s1", sess))

	rec.AssertStatus(t, http.StatusOK)
	var body heartbeatBody
	rec.DecodeJSON(t, &body)
	if body.Views != 2 {
		t.Errorf("views: got %d, want 2", body.Views)
	}
	if body.InactiveTTL != 1800 {
		t.Errorf("inactiveTtlSeconds: got %d, want 1800", body.InactiveTTL)
	}
}

func TestServeHeartbeat_NoViews(t *testing.T) {
	h := heartbeat.NewHandler(nil, 0, zap.NewNop())
	rec := testutil.NewRecorder()
	h.ServeHeartbeat(rec, testutil.NewAuthenticatedRequest("POST", "/api/heartbeat", testutil.HODUser("c1")))

	rec.AssertStatus(t, http.StatusOK)
	var body heartbeatBody
	rec.DecodeJSON(t, &body)
	if body.Views != 0 {
		t.Errorf("views: got %d, want 0", body.Views)
	}
}

func TestMountRoutes_RequireSignedIn(t *testing.T) {
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	r := chi.NewRouter()
	heartbeat.MountRoutes(r, heartbeat.NewHandler(nil, 0, zap.NewNop()), sm)

	req := testutil.NewRequest("POST", "/api/heartbeat")
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/api/heartbeat", testutil.CompanyAdminUser("c1")))
	rec.AssertStatus(t, http.StatusOK)
}
