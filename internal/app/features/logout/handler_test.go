package logout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/features/logout"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.uber.org/zap"
)

const sessionID = "665f1f77bcf86cd799439011"

type recordingEnder struct {
	ended  []string
	reason string
}

func (e *recordingEnder) End(_ context.Context, id, reason string) error {
	e.ended = append(e.ended, id)
	e.reason = reason
	return nil
}

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()

	// Create a session manager for testing
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	// Pass nil for audit logger in tests (logger methods are nil-safe)
	return logout.NewHandler(sessionMgr, nil, logger), sessionMgr
}

// signedIn returns a request carrying a session cookie for sessionID and
// the console user.
func signedIn(t *testing.T, sm *auth.SessionManager) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.Begin(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sessionID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	user := testutil.CompanyAdminUser("c1")
	user.SessionID = sessionID
	return testutil.WithUser(req, user)
}

func TestServeLogout_RedirectsToLogin(t *testing.T) {
	handler, sm := newTestHandler(t)

	rec := testutil.NewRecorder()
	handler.ServeLogout(rec, signedIn(t, sm))

	rec.AssertRedirect(t, "/login")
}

func TestServeLogout_JSON(t *testing.T) {
	handler, sm := newTestHandler(t)

	req := signedIn(t, sm)
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	handler.ServeLogout(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"redirect":"/login"`)
}

func TestServeLogout_HTMX(t *testing.T) {
	handler, sm := newTestHandler(t)

	req := signedIn(t, sm)
	req.Header.Set("HX-Request", "true")
	rec := testutil.NewRecorder()
	handler.ServeLogout(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect: got %q, want /login", got)
	}
}

func TestServeLogout_EndsSessionAndClearsCookie(t *testing.T) {
	handler, sm := newTestHandler(t)
	ender := &recordingEnder{}
	sm.SetEnder(ender)
	var torn []string
	sm.OnEnd(func(id string) { torn = append(torn, id) })

	rec := testutil.NewRecorder()
	handler.ServeLogout(rec, signedIn(t, sm))

	if len(ender.ended) != 1 || ender.ended[0] != sessionID || ender.reason != "logout" {
		t.Errorf("expected console session closed as logout, got %v %q", ender.ended, ender.reason)
	}
	if len(torn) != 1 || torn[0] != sessionID {
		t.Errorf("expected end hook for %s, got %v", sessionID, torn)
	}

	// Check that the session cookie is being deleted (MaxAge < 0)
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie to be cleared")
	}
}

func TestRoutes_RequiresSignedIn(t *testing.T) {
	handler, sm := newTestHandler(t)
	router := logout.Routes(handler, sm)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}
