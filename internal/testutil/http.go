package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	SessionID string
	ID        string
	Name      string
	Email     string
	Role      string
	CompanyID string
}

// WebsiteAdminUser returns a TestUser who administers the whole site.
func WebsiteAdminUser() TestUser {
	return TestUser{
		SessionID: primitive.NewObjectID().Hex(),
		ID:        "wa1",
		Name:      "Test Website Admin",
		Email:     "webadmin@test.com",
		Role:      models.RoleWebsiteAdmin,
	}
}

// CompanyAdminUser returns a TestUser administering companyID.
func CompanyAdminUser(companyID string) TestUser {
	return TestUser{
		SessionID: primitive.NewObjectID().Hex(),
		ID:        "u1",
		Name:      "Test Company Admin",
		Email:     "admin@test.com",
		Role:      models.RoleCompanyAdmin,
		CompanyID: companyID,
	}
}

// HODUser returns a TestUser heading a department of companyID.
func HODUser(companyID string) TestUser {
	return TestUser{
		SessionID: primitive.NewObjectID().Hex(),
		ID:        "u2",
		Name:      "Test Head",
		Email:     "hod@test.com",
		Role:      models.RoleHOD,
		CompanyID: companyID,
	}
}

// EndUser returns a TestUser with the plain user role in companyID.
func EndUser(companyID string) TestUser {
	return TestUser{
		SessionID: primitive.NewObjectID().Hex(),
		ID:        "u3",
		Name:      "Test User",
		Email:     "user@test.com",
		Role:      models.RoleUser,
		CompanyID: companyID,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		SessionID: user.SessionID,
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with body encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request body: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", r.Body.String(), err)
	}
}
