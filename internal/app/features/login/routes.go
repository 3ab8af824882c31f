// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes mounts the sign-in form at /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	return r
}

// RegisterRoutes mounts the account request at /register.
func RegisterRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleRegister)
	return r
}

// PasswordRoutes mounts the reset flow at /password.
func PasswordRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/forgot", h.HandleForgot)
	r.Post("/verify-otp", h.HandleVerifyOTP)
	r.Post("/reset", h.HandleReset)
	return r
}
