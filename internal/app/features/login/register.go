// internal/app/features/login/register.go
package login

import (
	"context"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/handoff"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var registerRules = map[string]any{
	"name":        "required,max=100",
	"email":       "required,email",
	"password":    "required,min=8",
	"companyName": "omitempty,max=200",
	"phone":       "omitempty,max=30",
}

// HandleRegister submits an account request to the backend. The email is
// kept as a handoff so the sign-in form can be prefilled afterwards.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse registration input failed", err, "Invalid form data.")
		return
	}
	in["email"] = normalize.Email(in["email"])
	in["name"] = normalize.Name(in["name"])
	if verr := mutation.Validate(values(in, "name", "email", "password", "companyName", "phone"), registerRules); verr != nil {
		uierrors.Validation(w, "Please check the highlighted fields.", verr.Fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Backend())
	defer cancel()

	msg, err := h.Backend.Register(ctx, backend.Registration{
		Name:        in["name"],
		Email:       in["email"],
		Password:    in["password"],
		CompanyName: in["companyName"],
		Phone:       in["phone"],
	})
	h.AuditLog.RegistrationSubmitted(ctx, r, in["email"], err)
	if err != nil {
		backendError(w, r, h.ErrLog, "backend registration failed", err)
		return
	}
	if msg == "" {
		msg = "Your registration was received."
	}

	body := map[string]any{"message": msg}
	dest := "/login"
	if handle := h.saveHandoff(ctx, handoff.KindRegistrationEmail, in["email"]); handle != "" {
		body["handoff"] = handle
		dest += "?handoff=" + url.QueryEscape(handle)
	}
	respond(w, r, http.StatusCreated, dest, body)
}

// saveHandoff stores value for the next step. A failure only costs the
// prefill, so it is logged and an empty handle returned.
func (h *Handler) saveHandoff(ctx context.Context, kind, value string) string {
	if h.Handoffs == nil {
		return ""
	}
	handle, err := h.Handoffs.Save(ctx, kind, value, h.HandoffTTL)
	if err != nil {
		h.Log.Warn("save handoff failed", zap.String("kind", kind), zap.Error(err))
		return ""
	}
	return handle
}
