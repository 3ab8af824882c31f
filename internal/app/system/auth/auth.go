// Package auth keeps the console session cookie and puts the signed-in
// user into each request's context.
//
// The cookie only carries the console session id. The backend token lives
// sealed in MongoDB and the resolved identity lives in the session cache.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// DefaultSessionName is the cookie name when none is configured.
	DefaultSessionName = "raciconsole-session"

	sessionIDKey = "console_session_id"

	// LoginPath is where unauthenticated callers are sent.
	LoginPath = "/login"
)

// ErrNoSession is returned by a Loader when the id names no open session.
var ErrNoSession = errors.New("no console session")

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we inject into r.Context() for a signed-in request.
type SessionUser struct {
	SessionID string
	ID        string
	Name      string
	Email     string
	Role      string
	CompanyID string

	// Session is the resolved session; nil only in handler tests that
	// inject a user directly.
	Session *sessionctx.Session
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user directly, bypassing the cookie. For tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func userFromSession(sessionID string, s *sessionctx.Session) *SessionUser {
	id := s.Identity
	return &SessionUser{
		SessionID: sessionID,
		ID:        id.ID,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		CompanyID: id.OrganizationRef,
		Session:   s,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// Loader resolves a console session id into a live Session. It returns
// ErrNoSession for unknown or closed ids and sessionctx.ErrUnauthenticated
// when the backend no longer accepts the stored token.
type Loader interface {
	Load(ctx context.Context, sessionID string) (*sessionctx.Session, error)
}

// Ender closes the server side of a console session.
type Ender interface {
	End(ctx context.Context, sessionID, reason string) error
}

// SessionManager owns the cookie store and the request middleware.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	log    *zap.Logger
	loader Loader
	ender  Ender
	onEnd  []func(sessionID string)
	onRej  []func(r *http.Request, sessionID string)
}

// NewSessionManager creates the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetLoader sets how cookie session ids are resolved.
func (sm *SessionManager) SetLoader(l Loader) { sm.loader = l }

// SetEnder sets how console sessions are closed server side.
func (sm *SessionManager) SetEnder(e Ender) { sm.ender = e }

// OnEnd registers a hook run with the session id whenever a session ends
// (logout or backend rejection). Used to tear down views and caches.
func (sm *SessionManager) OnEnd(fn func(sessionID string)) { sm.onEnd = append(sm.onEnd, fn) }

// OnReject registers a hook run before a session the backend rejected is
// ended. Used for auditing.
func (sm *SessionManager) OnReject(fn func(r *http.Request, sessionID string)) {
	sm.onRej = append(sm.onRej, fn)
}

// SessionID returns the console session id from the cookie, if any.
func (sm *SessionManager) SessionID(r *http.Request) string {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// A cookie signed under an old key decodes to a fresh session.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Debug("ignoring undecodable session cookie", zap.Error(err))
		} else {
			sm.log.Warn("session cookie read failed", zap.Error(err))
		}
	}
	id, _ := sess.Values[sessionIDKey].(string)
	return id
}

// Begin stores the console session id in the cookie.
func (sm *SessionManager) Begin(w http.ResponseWriter, r *http.Request, sessionID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[sessionIDKey] = sessionID
	return sess.Save(r, w)
}

// End closes the console session, clears the cookie and runs OnEnd hooks.
func (sm *SessionManager) End(ctx context.Context, w http.ResponseWriter, r *http.Request, reason string) {
	id := sm.SessionID(r)
	sess, _ := sm.store.Get(r, sm.name)
	delete(sess.Values, sessionIDKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("failed to clear session cookie", zap.Error(err))
	}
	if id == "" {
		return
	}
	if sm.ender != nil {
		if err := sm.ender.End(ctx, id, reason); err != nil && !errors.Is(err, ErrNoSession) {
			sm.log.Warn("failed to close console session", zap.String("session_id", id), zap.Error(err))
		}
	}
	for _, fn := range sm.onEnd {
		fn(id)
	}
}

// Reject ends a session whose token the backend no longer accepts. OnReject
// hooks run first, while the session still exists.
func (sm *SessionManager) Reject(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if id := sm.SessionID(r); id != "" {
		for _, fn := range sm.onRej {
			fn(r, id)
		}
	}
	sm.End(ctx, w, r, "unauthenticated")
}

// LoadSessionUser injects the user into context if they are signed in. A
// session the backend rejects is ended here, so the request continues as
// anonymous and RequireSignedIn sends it to the login page.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sm.SessionID(r)
		if id == "" || sm.loader == nil {
			next.ServeHTTP(w, r)
			return
		}

		s, err := sm.loader.Load(r.Context(), id)
		switch {
		case err == nil:
			r = withUser(r, userFromSession(id, s))
		case errors.Is(err, sessionctx.ErrUnauthenticated):
			sm.log.Info("backend rejected console session", zap.String("session_id", id))
			sm.Reject(r.Context(), w, r)
		case errors.Is(err, ErrNoSession):
			sm.End(r.Context(), w, r, "")
		default:
			sm.log.Warn("session load failed", zap.String("session_id", id), zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		Unauthenticated(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				Unauthenticated(w, r)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Unauthenticated sends the caller to the login page:
//   - HTMX: HX-Redirect header with 401
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 with {"error":"unauthenticated","redirect":"/login"}
func Unauthenticated(w http.ResponseWriter, r *http.Request) {
	dest := LoginPath + "?return=" + url.QueryEscape(currentURI(r))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated", "redirect": LoginPath})
}

// Forbidden answers a signed-in caller without the needed role.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/forbidden")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
