// internal/app/features/login/password.go
package login

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/handoff"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const expiredMsg = "This reset request has expired. Please start again."

var (
	forgotRules = map[string]any{"email": "required,email"}
	otpRules    = map[string]any{"handoff": "required", "otp": "required,numeric,min=4,max=8"}
	resetRules  = map[string]any{"handoff": "required", "password": "required,min=8"}
)

// resetGrant is what verify-otp hands to the reset step.
type resetGrant struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// HandleForgot asks the backend to send a one-time code. The email is kept
// server side; the caller only gets a handle for the next step.
func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse forgot-password input failed", err, "Invalid form data.")
		return
	}
	email := normalize.Email(in["email"])
	in["email"] = email
	if verr := mutation.Validate(values(in, "email"), forgotRules); verr != nil {
		uierrors.Validation(w, "Please enter a valid email address.", verr.Fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Backend())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			uierrors.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	if err := h.Backend.ForgotPassword(ctx, email); err != nil {
		backendError(w, r, h.ErrLog, "backend forgot-password failed", err)
		return
	}
	h.AuditLog.PasswordResetRequested(ctx, r, email)

	handle := h.saveHandoff(ctx, handoff.KindResetEmail, email)
	if handle == "" {
		uierrors.Error(w, http.StatusInternalServerError, "Unable to continue the reset. Please try again.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "If an account exists for that email, a code has been sent.",
		"handoff": handle,
	})
}

// HandleVerifyOTP checks the code against the email from the forgot step.
// A wrong code leaves the handle usable for another try.
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse verify-otp input failed", err, "Invalid form data.")
		return
	}
	if verr := mutation.Validate(values(in, "handoff", "otp"), otpRules); verr != nil {
		uierrors.Validation(w, "Please enter the code from your email.", verr.Fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Backend())
	defer cancel()

	email, ok, err := h.Handoffs.Peek(ctx, in["handoff"], handoff.KindResetEmail)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reset handoff lookup failed", err, "A server error occurred.")
		return
	}
	if !ok {
		uierrors.Error(w, http.StatusGone, expiredMsg)
		return
	}
	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, email); !allowed {
			h.AuditLog.OTPFailed(ctx, r, email, "rate_limited")
			uierrors.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	resetToken, err := h.Backend.VerifyOTP(ctx, email, in["otp"])
	if err != nil {
		h.AuditLog.OTPFailed(ctx, r, email, "rejected")
		backendError(w, r, h.ErrLog, "backend verify-otp failed", err)
		return
	}
	h.AuditLog.OTPVerified(ctx, r, email)

	if _, _, err := h.Handoffs.Take(ctx, in["handoff"], handoff.KindResetEmail); err != nil {
		h.Log.Warn("consume reset email handoff failed", zap.Error(err))
	}
	grant, _ := json.Marshal(resetGrant{Email: email, Token: resetToken})
	handle := h.saveHandoff(ctx, handoff.KindResetToken, string(grant))
	if handle == "" {
		uierrors.Error(w, http.StatusInternalServerError, "Unable to continue the reset. Please try again.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"handoff": handle})
}

// HandleReset sets the new password with the reset token from verify-otp.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse reset input failed", err, "Invalid form data.")
		return
	}
	verr := mutation.Validate(values(in, "handoff", "password"), resetRules)
	if confirm, ok := in["confirmPassword"]; ok && confirm != in["password"] {
		if verr == nil {
			verr = &mutation.ValidationError{Fields: map[string]string{}}
		}
		verr.Fields["confirmPassword"] = "Passwords do not match"
	}
	if verr != nil {
		uierrors.Validation(w, "Please check the highlighted fields.", verr.Fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Backend())
	defer cancel()

	raw, ok, err := h.Handoffs.Peek(ctx, in["handoff"], handoff.KindResetToken)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reset handoff lookup failed", err, "A server error occurred.")
		return
	}
	var grant resetGrant
	if !ok || json.Unmarshal([]byte(raw), &grant) != nil || grant.Token == "" {
		uierrors.Error(w, http.StatusGone, expiredMsg)
		return
	}

	if err := h.Backend.ResetPassword(ctx, grant.Token, in["password"]); err != nil {
		backendError(w, r, h.ErrLog, "backend reset-password failed", err)
		return
	}
	h.consume(ctx, in["handoff"])
	h.AuditLog.PasswordReset(ctx, r, grant.Email)

	respond(w, r, http.StatusOK, "/login", map[string]any{"message": "Your password has been reset. Please sign in."})
}

func (h *Handler) consume(ctx context.Context, handle string) {
	if _, _, err := h.Handoffs.Take(ctx, handle, handoff.KindResetToken); err != nil {
		h.Log.Warn("consume reset token handoff failed", zap.Error(err))
	}
}
