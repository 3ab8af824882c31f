// internal/app/features/resources/mutate.go
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/gates"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxPayload = 256 << 10

// mutationResponse reports an accepted mutation. State is "pending" unless
// the caller asked to wait and the backend answered in time.
type mutationResponse struct {
	ID      string         `json:"id"`
	Kind    string         `json:"kind"`
	State   string         `json:"state"`
	Record  *models.Record `json:"record,omitempty"`
	Message string         `json:"message,omitempty"`
}

// HandleCreate handles POST /r/{resource}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(c *resourcesession.Controller, payload map[string]any) (*mutation.Pending, error) {
		return c.Create(payload)
	}, true)
}

// HandleUpdate handles PUT /r/{resource}/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *resourcesession.Controller, payload map[string]any) (*mutation.Pending, error) {
		return c.Update(id, payload)
	}, true)
}

// HandleDelete handles DELETE /r/{resource}/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *resourcesession.Controller, _ map[string]any) (*mutation.Pending, error) {
		return c.Delete(id)
	}, false)
}

type applyFunc func(c *resourcesession.Controller, payload map[string]any) (*mutation.Pending, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, apply applyFunc, withBody bool) {
	rt, ok := h.resourceType(w, r)
	if !ok {
		return
	}
	if res := gates.RequireManage(w, r, rt); !res.OK {
		return
	}

	var payload map[string]any
	if withBody {
		var err error
		if payload, err = readPayload(r); err != nil {
			uierrors.Error(w, http.StatusBadRequest, "Request body must be a JSON object.")
			return
		}
	}

	c, ok := h.view(w, r, rt)
	if !ok {
		return
	}
	if c.State().Unauthenticated {
		h.unauthenticated(w, r)
		return
	}
	// Updates and deletes need the record in the collection.
	if err := h.ensureLoaded(r.Context(), c, listParams(r, rt), false); err != nil {
		if h.controllerError(w, r, rt, err) {
			return
		}
		h.ErrLog.LogUpstream(w, r, "load before mutation", err, "Couldn't load "+strings.ToLower(rt.Label)+".")
		return
	}

	p, err := apply(c, payload)
	if err != nil {
		h.mutationError(w, r, rt, err)
		return
	}

	resp := mutationResponse{ID: p.ID, Kind: string(p.Kind), State: mutation.StatePending.String()}
	if !wantsWait(r) {
		uierrors.WriteJSON(w, http.StatusAccepted, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Wait)
	defer cancel()
	o, err := p.Wait(ctx)
	resp.State = o.State.String()
	switch {
	case err == nil:
		resp.Record = o.Record
		uierrors.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		uierrors.WriteJSON(w, http.StatusAccepted, resp)
	case errors.Is(err, backend.ErrUnauthenticated):
		h.unauthenticated(w, r)
	default:
		var rej *mutation.RejectedError
		if errors.As(err, &rej) {
			resp.Message = rej.Message(rt.Noun)
		} else {
			resp.Message = err.Error()
		}
		h.Log.Info("mutation rolled back",
			zap.String("resource", rt.Name),
			zap.String("kind", resp.Kind),
			zap.String("id", resp.ID),
			zap.Error(err))
		uierrors.WriteJSON(w, rejectedStatus(err), resp)
	}
}

// mutationError answers intents refused before anything was sent.
func (h *Handler) mutationError(w http.ResponseWriter, r *http.Request, rt models.ResourceType, err error) {
	if h.controllerError(w, r, rt, err) {
		return
	}
	var verr *mutation.ValidationError
	switch {
	case errors.As(err, &verr):
		uierrors.Validation(w, "Please fix the highlighted fields.", verr.Fields)
	case errors.Is(err, mutation.ErrConcurrentMutation):
		uierrors.Error(w, http.StatusConflict, "A change to this "+strings.ToLower(rt.Noun)+" is already in progress.")
	case errors.Is(err, mutation.ErrNotFound), errors.Is(err, mutation.ErrMissingTarget):
		uierrors.Error(w, http.StatusNotFound, rt.Noun+" not found.")
	default:
		h.ErrLog.LogServerError(w, r, "apply mutation", err, "Something went wrong.")
	}
}

// rejectedStatus maps a rolled-back mutation to the status the caller sees.
func rejectedStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func wantsWait(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("wait"))
	return v == "1" || v == "true"
}

// readPayload decodes a JSON object body. An empty body is an empty payload.
func readPayload(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("payload is not an object")
	}
	return payload, nil
}
