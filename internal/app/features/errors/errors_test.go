package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.uber.org/zap"
)

func TestForbidden_SignedIn(t *testing.T) {
	h := uierrors.NewHandler()
	req := testutil.WithUser(httptest.NewRequest("GET", "/forbidden", nil), testutil.HODUser("c1"))
	rec := httptest.NewRecorder()

	h.Forbidden(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["isLoggedIn"] != true || body["role"] != "hod" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestNotFound_BackURLDependsOnSession(t *testing.T) {
	h := uierrors.NewHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	var anon map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &anon)
	if anon["backUrl"] != "/login" {
		t.Errorf("expected /login for anonymous caller, got %v", anon["backUrl"])
	}

	rec = httptest.NewRecorder()
	h.NotFound(rec, testutil.WithUser(httptest.NewRequest("GET", "/nope", nil), testutil.EndUser("c1")))
	var signed map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &signed)
	if signed["backUrl"] != "/dashboard" {
		t.Errorf("expected /dashboard for signed-in caller, got %v", signed["backUrl"])
	}
}

func TestValidation_FieldMap(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.Validation(rec, "Please fix the highlighted fields.", map[string]string{"name": "Name is required."})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Fields["name"] != "Name is required." {
		t.Errorf("unexpected fields %v", body.Fields)
	}
}

func TestErrorLogger_ServerErrorHidesDetail(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()

	el.LogServerError(rec, httptest.NewRequest("POST", "/login", nil), "save session", errors.New("mongo: connection reset"), "A server error occurred.")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"A server error occurred.\"}\n" {
		t.Errorf("unexpected body %q", got)
	}
}
