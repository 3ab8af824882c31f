package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/r/{resource}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(get().httpRequestsTotal.WithLabelValues("GET", "/r/{resource}", "418"))
	for _, p := range []string{"/r/departments", "/r/users"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}
	after := testutil.ToFloat64(get().httpRequestsTotal.WithLabelValues("GET", "/r/{resource}", "418"))
	if after-before != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %v", after-before)
	}
}

func TestObserveMutation(t *testing.T) {
	c := get().mutationsTotal.WithLabelValues("departments", "delete", "rolled_back")
	before := testutil.ToFloat64(c)
	ObserveMutation("departments", "delete", "rolled_back")
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("expected counter +1, got %v", got)
	}
}

func TestHandler_ExposesInstruments(t *testing.T) {
	ObserveBackend("GET", "departments", "200", 20*time.Millisecond)
	SetLiveViews(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"raciconsole_backend_requests_total", "raciconsole_live_views 3"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}
