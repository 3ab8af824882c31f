// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - SessionID / sessionID: the console session's id, the only value kept in the cookie
//   - UserID / userID: the backend's id for the signed-in user
//   - Email / email: what the operator types to sign in; the backend's login key

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/handoff"
	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/app/system/auditlog"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/navigation"
	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/app/system/ratelimit"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// DefaultHandoffTTL bounds how long a registration or reset step may wait
// for the next one.
const DefaultHandoffTTL = 15 * time.Minute

type Handler struct {
	Log        *zap.Logger
	Backend    *backend.Client
	Resolver   *sessionctx.Resolver
	Sessions   *sessions.Store // console sessions holding the sealed token
	Handoffs   *handoff.Store  // values passed between auth steps
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter // nil disables rate limiting
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	HandoffTTL time.Duration
}

func NewHandler(
	client *backend.Client,
	resolver *sessionctx.Resolver,
	sessStore *sessions.Store,
	handoffs *handoff.Store,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	handoffTTL time.Duration,
	logger *zap.Logger,
) *Handler {
	if handoffTTL <= 0 {
		handoffTTL = DefaultHandoffTTL
	}
	return &Handler{
		Log:        logger,
		Backend:    client,
		Resolver:   resolver,
		Sessions:   sessStore,
		Handoffs:   handoffs,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     errLog,
		HandoffTTL: handoffTTL,
	}
}

var loginRules = map[string]any{
	"email":    "required,email",
	"password": "required",
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	Email     string `json:"email,omitempty"`
	ReturnURL string `json:"return"`
	SignedIn  bool   `json:"signedIn"`
}

// ServeLogin describes the sign-in form. A registration handoff prefills the
// email the account was requested for.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		ReturnURL: navigation.SafeReturn(query.Get(r, "return"), navigation.AfterLogin),
	}
	if _, ok := auth.CurrentUser(r); ok {
		data.SignedIn = true
	}

	if handle := query.Get(r, "handoff"); handle != "" && h.Handoffs != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		email, ok, err := h.Handoffs.Peek(ctx, handle, handoff.KindRegistrationEmail)
		if err != nil {
			h.Log.Warn("registration handoff lookup failed", zap.Error(err))
		} else if ok {
			data.Email = email
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost exchanges credentials for a backend token, resolves the
// identity behind it and opens a console session.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login input failed", err, "Invalid form data.")
		return
	}
	email := normalize.Email(in["email"])
	in["email"] = email
	if verr := mutation.Validate(values(in, "email", "password"), loginRules); verr != nil {
		uierrors.Validation(w, "Please check the highlighted fields.", verr.Fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Backend())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email, reason)
			uierrors.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	token, err := h.Backend.Login(ctx, backend.Credentials{Email: email, Password: in["password"]})
	if err != nil {
		h.loginFailed(ctx, w, r, email, err)
		return
	}

	sess, err := h.Resolver.Resolve(ctx, token)
	if err != nil {
		h.loginFailed(ctx, w, r, email, err)
		return
	}
	id := sess.Identity

	rec, err := h.Sessions.Create(ctx, sessions.Open{
		UserID:    id.ID,
		Email:     id.Email,
		Role:      id.Role,
		CompanyID: id.OrganizationRef,
		Token:     token,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create console session failed", err, "Unable to create session. Please try again.")
		return
	}
	sessionID := rec.ID.Hex()
	h.Resolver.Remember(sessionID, sess)

	if err := h.SessionMgr.Begin(w, r, sessionID); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", id.ID))
		h.Resolver.Forget(sessionID)
		_ = h.Sessions.Close(ctx, rec.ID, sessions.EndLogout)
		uierrors.Error(w, http.StatusInternalServerError, "Unable to create session. Please try again.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, id)

	dest := navigation.SafeReturn(in["return"], navigation.AfterLogin)
	respond(w, r, http.StatusOK, dest, map[string]any{"user": id})
}

// loginFailed answers a failed sign-in. A rejected credential is not a
// reason to send the caller anywhere; they are already on the login form.
func (h *Handler) loginFailed(ctx context.Context, w http.ResponseWriter, r *http.Request, email string, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthenticated):
		h.AuditLog.LoginFailed(ctx, r, email, "rejected")
		msg := "Invalid email or password."
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.UserMessage() != "" {
			msg = apiErr.UserMessage()
		}
		uierrors.Error(w, http.StatusUnauthorized, msg)
	case errors.Is(err, backend.ErrNetworkFailure):
		h.AuditLog.LoginFailed(ctx, r, email, "backend_unreachable")
		h.ErrLog.LogUpstream(w, r, "backend login unreachable", err, "The server could not be reached. Please try again.")
	default:
		h.AuditLog.LoginFailed(ctx, r, email, "backend_error")
		backendError(w, r, h.ErrLog, "backend login failed", err)
	}
}

// backendError answers with the backend's own message where it sent one.
func backendError(w http.ResponseWriter, r *http.Request, errLog *uierrors.ErrorLogger, msg string, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		if len(apiErr.Fields) > 0 {
			uierrors.Validation(w, apiErr.UserMessage(), apiErr.Fields)
			return
		}
		text := apiErr.UserMessage()
		if text == "" {
			text = "The request was not accepted."
		}
		uierrors.Error(w, http.StatusBadRequest, text)
		return
	}
	if errors.Is(err, backend.ErrNetworkFailure) {
		errLog.LogUpstream(w, r, msg, err, "The server could not be reached. Please try again.")
		return
	}
	errLog.LogUpstream(w, r, msg, err, "Something went wrong. Please try again.")
}
