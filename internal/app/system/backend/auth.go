package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrNoToken is returned when a sign-in style response carried no token.
var ErrNoToken = errors.New("backend response carried no token")

// Me fetches GET /auth/me, the identity behind the credential.
func (a *Caller) Me(ctx context.Context) ([]byte, error) {
	return a.do(ctx, http.MethodGet, "auth", nil, nil, "auth", "me")
}

// Company fetches GET /companies/{id}.
func (a *Caller) Company(ctx context.Context, id string) ([]byte, error) {
	return a.do(ctx, http.MethodGet, "companies", nil, nil, "companies", id)
}

// Credentials are what the operator types on the sign-in form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token via POST /auth/login.
func (c *Client) Login(ctx context.Context, cred Credentials) (string, error) {
	raw, err := c.anonymous().do(ctx, http.MethodPost, "auth", nil, cred, "auth", "login")
	if err != nil {
		return "", err
	}
	tok := tokenOf(raw, "token", "accessToken", "access_token", "jwt")
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Registration is the payload of POST /auth/register.
type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Register creates an account. It returns the backend's message, if any.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	raw, err := c.anonymous().do(ctx, http.MethodPost, "auth", nil, reg, "auth", "register")
	if err != nil {
		return "", err
	}
	return messageOf(raw), nil
}

// ForgotPassword asks the backend to send a one-time code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.anonymous().do(ctx, http.MethodPost, "auth", nil,
		map[string]string{"email": email}, "auth", "forgot-password")
	return err
}

// VerifyOTP checks a one-time code and returns the reset token the backend
// issues for the following password reset.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	raw, err := c.anonymous().do(ctx, http.MethodPost, "auth", nil,
		map[string]string{"email": email, "otp": otp}, "auth", "verify-otp")
	if err != nil {
		return "", err
	}
	tok := tokenOf(raw, "resetToken", "reset_token", "token")
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// ResetPassword sets a new password using a reset token from VerifyOTP.
func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) error {
	_, err := c.anonymous().do(ctx, http.MethodPost, "auth", nil,
		map[string]string{"resetToken": resetToken, "password": password}, "auth", "reset-password")
	return err
}

// tokenOf finds the first non-empty key at the top level or under "data".
func tokenOf(raw []byte, keys ...string) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if s := firstString(m, keys...); s != "" {
		return s
	}
	if data, ok := m["data"].(map[string]any); ok {
		return firstString(data, keys...)
	}
	return ""
}

func messageOf(raw []byte) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	return strings.TrimSpace(firstString(m, "message", "msg"))
}
