// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"go.uber.org/zap"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// Validation writes a 422 with one message per invalid field.
func Validation(w http.ResponseWriter, msg string, fields map[string]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: msg, Fields: fields})
}

// RenderUnauthorized sends the caller to sign in again.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	auth.Unauthenticated(w, r)
}

// RenderForbidden answers a signed-in caller who may not do what they asked.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	Error(w, http.StatusForbidden, msg)
}

// ErrorLogger logs a failure and answers the caller with a safe message.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err and answers 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	Error(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs err at warn level and answers 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Warn(msg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	Error(w, http.StatusBadRequest, userMsg)
}

// LogUpstream logs a backend failure and answers 502 with userMsg.
func (e *ErrorLogger) LogUpstream(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Warn(msg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	Error(w, http.StatusBadGateway, userMsg)
}
