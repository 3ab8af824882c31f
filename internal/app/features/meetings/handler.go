// internal/app/features/meetings/handler.go
package meetings

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/resourcesession"
	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/calendar"
	"github.com/dalemusser/raciconsole/internal/app/system/gates"
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/app/system/projection"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const monthLayout = "2006-01"

// Views is the part of the view registry the calendar uses.
type Views interface {
	Get(sessionID string, sess *sessionctx.Session, rt models.ResourceType) (*resourcesession.Controller, bool)
}

// Handler serves the meetings calendar. It shares the meetings view with
// the generic resource routes, so a meeting created there shows up here
// without another fetch.
type Handler struct {
	Views      Views
	SessionMgr *auth.SessionManager
	Log        *zap.Logger

	now func() time.Time
}

// NewHandler constructs a meetings Handler.
func NewHandler(views Views, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Views: views, SessionMgr: sessionMgr, Log: logger, now: time.Now}
}

type calendarResponse struct {
	calendar.MonthView
	Prev          string                `json:"prev"`
	Next          string                `json:"next"`
	Guest         string                `json:"guest,omitempty"`
	CanManage     bool                  `json:"canManage"`
	Loaded        bool                  `json:"loaded"`
	Notifications []notify.Notification `json:"notifications"`
}

// ServeCalendar handles GET /meetings/calendar?month=YYYY-MM&guest=.
func (h *Handler) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	rt, _ := models.LookupResourceType(models.ResourceMeetings)
	if res := gates.RequireView(w, r, rt); !res.OK {
		return
	}

	month := h.now().UTC()
	if raw := query.Get(r, "month"); raw != "" {
		m, err := time.Parse(monthLayout, raw)
		if err != nil {
			uierrors.Validation(w, "Please check the month.", map[string]string{"month": "Month must look like 2024-05"})
			return
		}
		month = m
	}
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	guest := query.Search(r, "guest")

	u, ok := auth.CurrentUser(r)
	if !ok || u.Session == nil || u.SessionID == "" {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	c, _ := h.Views.Get(u.SessionID, u.Session, rt)
	if st := c.State(); st.Unauthenticated {
		h.reject(w, r)
		return
	} else if !st.Loaded {
		if err := c.Load(r.Context(), backend.ListParams{}); err != nil {
			if errors.Is(err, backend.ErrUnauthenticated) {
				h.reject(w, r)
				return
			}
			if errors.Is(err, resourcesession.ErrClosed) {
				uierrors.Error(w, http.StatusConflict, "This view was closed. Please reload.")
				return
			}
			h.Log.Debug("meetings load failed", zap.Error(err))
		}
	}

	v := c.View(projection.Spec{})
	uierrors.WriteJSON(w, http.StatusOK, calendarResponse{
		MonthView:     calendar.Month(v.Rows, first.Year(), first.Month(), guest),
		Prev:          first.AddDate(0, -1, 0).Format(monthLayout),
		Next:          first.AddDate(0, 1, 0).Format(monthLayout),
		Guest:         guest,
		CanManage:     v.CanManage,
		Loaded:        v.Loaded,
		Notifications: v.Notifications,
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	if h.SessionMgr != nil {
		h.SessionMgr.Reject(r.Context(), w, r)
	}
	uierrors.RenderUnauthorized(w, r)
}
