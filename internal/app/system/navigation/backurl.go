// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/r/departments").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/login").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", validates
// the URL is safe (not an open redirect), optionally validates the prefix,
// and excludes specified subpaths to prevent redirect loops.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	raw := query.Get(r, "return")
	if raw == "" {
		raw = strings.TrimSpace(r.FormValue("return"))
	}
	return SafeReturn(raw, opts)
}

// SafeReturn validates a return URL taken from anywhere, such as a JSON
// body, and falls back to opts.Fallback when it is unsafe or excluded.
func SafeReturn(raw string, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(strings.TrimSpace(raw), "", "")
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") {
		return opts.Fallback
	}
	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return opts.Fallback
		}
	}
	return ret
}

// Common back URL configurations for reuse across packages.
var (
	// AfterLogin is where a successful sign-in may continue to.
	AfterLogin = BackURLOptions{
		ExcludedSubpaths: []string{"/login", "/logout", "/register", "/password"},
		Fallback:         "/dashboard",
	}

	// AfterLogout is where a sign-out lands.
	AfterLogout = BackURLOptions{
		ExcludedSubpaths: []string{"/logout"},
		Fallback:         "/login",
	}
)
