package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/go-chi/chi/v5"
)

// Token is the bearer credential FakeBackend accepts by default.
const Token = "test-token"

// Backend list response wrappings, for SetShape.
const (
	ShapeArray   = "array"   // [ ... ]
	ShapeKeyed   = "keyed"   // { "<resource>": [ ... ] }
	ShapeData    = "data"    // { "data": [ ... ] }
	ShapeSuccess = "success" // { "success": true, "<resource>": [ ... ] }
	ShapeNested  = "nested"  // { "data": { "<resource>": [ ... ] } }
	ShapeBogus   = "bogus"   // { "items": "nope" }
)

// FakeBackend is an in-memory RACI API for tests. Collections are kept as
// raw JSON objects so tests can seed any alias spelling.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	token       string
	user        map[string]any
	collections map[string][]map[string]any
	nextID      int
	shape       string
	delay       time.Duration
	failures    map[string]int
	calls       map[string]int
	queries     map[string]url.Values
	bodies      map[string]map[string]any
	echoRecord  bool
}

// NewFakeBackend starts a fake API closed at test cleanup. The signed-in
// user is a company admin of company "c1".
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		token: Token,
		user: map[string]any{
			"_id": "u1", "fullName": "Asha Rao", "email": "asha@acme.test",
			"role": "company_admin", "company": map[string]any{"_id": "c1", "companyName": "Acme"},
		},
		collections: map[string][]map[string]any{
			"companies": {{"_id": "c1", "companyName": "Acme", "projectName": "RACI"}},
		},
		nextID:     100,
		shape:      ShapeSuccess,
		failures:   make(map[string]int),
		calls:      make(map[string]int),
		queries:    make(map[string]url.Values),
		bodies:     make(map[string]map[string]any),
		echoRecord: true,
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns a backend client pointed at the fake.
func (f *FakeBackend) Client(t *testing.T, opts ...backend.Option) *backend.Client {
	t.Helper()
	opts = append([]backend.Option{backend.WithTransport(f.Server.Client().Transport)}, opts...)
	c, err := backend.New(f.Server.URL, opts...)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return c
}

// SetUser replaces the identity returned by /auth/me.
func (f *FakeBackend) SetUser(user map[string]any) {
	f.mu.Lock()
	f.user = user
	f.mu.Unlock()
}

// Seed appends raw objects to a collection.
func (f *FakeBackend) Seed(resource string, items ...map[string]any) {
	f.mu.Lock()
	f.collections[resource] = append(f.collections[resource], items...)
	f.mu.Unlock()
}

// Items returns a copy of a collection.
func (f *FakeBackend) Items(resource string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.collections[resource]...)
}

// SetShape changes how list responses are wrapped.
func (f *FakeBackend) SetShape(shape string) {
	f.mu.Lock()
	f.shape = shape
	f.mu.Unlock()
}

// SetDelay holds every resource response for d.
func (f *FakeBackend) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// EchoRecord controls whether create and update responses carry the record.
func (f *FakeBackend) EchoRecord(on bool) {
	f.mu.Lock()
	f.echoRecord = on
	f.mu.Unlock()
}

// Fail makes method on resource answer with status until cleared with 0.
func (f *FakeBackend) Fail(method, resource string, status int) {
	f.mu.Lock()
	if status == 0 {
		delete(f.failures, method+" "+resource)
	} else {
		f.failures[method+" "+resource] = status
	}
	f.mu.Unlock()
}

// Calls counts requests for method on resource.
func (f *FakeBackend) Calls(method, resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+resource]
}

// LastQuery is the query string of the latest list request for resource.
func (f *FakeBackend) LastQuery(resource string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[resource]
}

// LastBody is the decoded body of the latest write to resource.
func (f *FakeBackend) LastBody(resource string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[resource]
}

func (f *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Use(f.recordAuth)
		r.Post("/login", f.login)
		r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Registration received"})
		})
		r.Post("/forgot-password", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Post("/verify-otp", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["otp"] != "123456" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid code"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"resetToken": "reset-1"})
		})
		r.Post("/reset-password", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
		r.With(f.authorized).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			user := f.user
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(f.authorized)
		r.Get("/{resource}", f.list)
		r.Post("/{resource}", f.create)
		r.Get("/{resource}/{id}", f.get)
		r.Put("/{resource}/{id}", f.update)
		r.Delete("/{resource}/{id}", f.remove)
	})
	return r
}

// recordAuth counts auth calls under the "auth" resource and keeps the
// latest POST body.
func (f *FakeBackend) recordAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}
		f.mu.Lock()
		f.calls[r.Method+" auth"]++
		if body != nil {
			f.bodies["auth"] = body
		}
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		tok := f.token
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+tok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid email or password"})
		return
	}
	f.mu.Lock()
	tok := f.token
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": tok})
}

// begin counts the call, applies the delay and reports an injected failure.
func (f *FakeBackend) begin(w http.ResponseWriter, r *http.Request, resource string) bool {
	f.mu.Lock()
	key := r.Method + " " + resource
	f.calls[key]++
	delay := f.delay
	status := f.failures[key]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return false
		}
	}
	if status != 0 {
		writeJSON(w, status, map[string]any{"success": false, "message": http.StatusText(status)})
		return false
	}
	return true
}

func (f *FakeBackend) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !f.begin(w, r, resource) {
		return
	}
	f.mu.Lock()
	f.queries[resource] = r.URL.Query()
	items := append([]map[string]any{}, f.collections[resource]...)
	shape := f.shape
	f.mu.Unlock()

	if c := r.URL.Query().Get("companyId"); c != "" {
		kept := items[:0]
		for _, it := range items {
			if owner, ok := it["companyId"]; !ok || owner == c {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	switch shape {
	case ShapeArray:
		writeJSON(w, http.StatusOK, items)
	case ShapeKeyed:
		writeJSON(w, http.StatusOK, map[string]any{resource: items})
	case ShapeData:
		writeJSON(w, http.StatusOK, map[string]any{"data": items})
	case ShapeNested:
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{resource: items}})
	case ShapeBogus:
		writeJSON(w, http.StatusOK, map[string]any{"items": "nope"})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, resource: items})
	}
}

func (f *FakeBackend) get(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	if !f.begin(w, r, resource) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexLocked(resource, id); i >= 0 {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": f.collections[resource][i]})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
}

func (f *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !f.begin(w, r, resource) {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
		return
	}
	f.mu.Lock()
	f.bodies[resource] = body
	f.nextID++
	item := map[string]any{"_id": strconv.Itoa(f.nextID), "createdAt": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range body {
		item[k] = v
	}
	f.collections[resource] = append(f.collections[resource], item)
	echo := f.echoRecord
	f.mu.Unlock()

	if !echo {
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, singular(resource): item})
}

func (f *FakeBackend) update(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	if !f.begin(w, r, resource) {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
		return
	}
	f.mu.Lock()
	f.bodies[resource] = body
	i := f.indexLocked(resource, id)
	if i < 0 {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}
	item := f.collections[resource][i]
	for k, v := range body {
		item[k] = v
	}
	echo := f.echoRecord
	f.mu.Unlock()

	if !echo {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": item})
}

func (f *FakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	if !f.begin(w, r, resource) {
		return
	}
	f.mu.Lock()
	i := f.indexLocked(resource, id)
	if i >= 0 {
		items := f.collections[resource]
		f.collections[resource] = append(items[:i:i], items[i+1:]...)
	}
	f.mu.Unlock()
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Deleted"})
}

func (f *FakeBackend) indexLocked(resource, id string) int {
	for i, it := range f.collections[resource] {
		for _, k := range []string{"_id", "id"} {
			if v, ok := it[k]; ok && toString(v) == id {
				return i
			}
		}
	}
	return -1
}

func singular(resource string) string {
	switch resource {
	case "companies":
		return "company"
	case "raci-assignments":
		return "raciAssignment"
	}
	return strings.TrimSuffix(resource, "s")
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
