// internal/app/features/login/input.go
package login

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
)

const maxInputBytes = 64 << 10

// readInput accepts a JSON object or an urlencoded form. Every value is
// returned as a trimmed string; passwords are left as typed.
func readInput(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if isJSON(r) {
		var raw map[string]any
		dec := json.NewDecoder(io.LimitReader(r.Body, maxInputBytes))
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return clean(out), nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxInputBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return clean(out), nil
}

func clean(in map[string]string) map[string]string {
	for k, v := range in {
		if strings.Contains(strings.ToLower(k), "password") {
			continue
		}
		in[k] = strings.TrimSpace(v)
	}
	return in
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// respond finishes a successful step. Form posts follow the redirect; API
// callers get the body with the destination added.
func respond(w http.ResponseWriter, r *http.Request, status int, dest string, body map[string]any) {
	if !isJSON(r) && dest != "" {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	if dest != "" {
		body["redirect"] = dest
	}
	uierrors.WriteJSON(w, status, body)
}

// values adapts form input to the validator's map form.
func values(in map[string]string, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = in[k]
	}
	return out
}
