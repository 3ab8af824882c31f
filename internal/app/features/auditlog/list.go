// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/system/authz"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit - the audit log with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	// Get filter parameters
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	eventType := strings.TrimSpace(r.URL.Query().Get("event_type"))
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	startDate := strings.TrimSpace(r.URL.Query().Get("start_date"))
	endDate := strings.TrimSpace(r.URL.Query().Get("end_date"))
	pageStr := r.URL.Query().Get("page")

	page := 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Resource:  resource,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	// Company admins only see events from their own company.
	if role != models.RoleWebsiteAdmin {
		companyID := authz.CompanyID(r)
		if companyID == "" {
			h.render(w, listData{Page: 1, TotalPages: 1, PrevPage: 1, NextPage: 1}, category)
			return
		}
		filter.CompanyID = companyID
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to query audit events", err, "A database error occurred.")
		return
	}

	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to count audit events", err, "A database error occurred.")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			CompanyID:     e.CompanyID,
			UserID:        e.UserID,
			Email:         e.Email,
			Resource:      e.Resource,
			TargetID:      e.TargetID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	prevPage := page - 1
	if prevPage < 1 {
		prevPage = 1
	}
	nextPage := page + 1
	if nextPage > totalPages {
		nextPage = totalPages
	}

	h.Log.Debug("audit log listed", zap.Int("shown", len(items)), zap.Int64("total", total))
	h.render(w, listData{
		Items:      items,
		EventType:  eventType,
		Resource:   resource,
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   prevPage,
		NextPage:   nextPage,
	}, category)
}

func (h *Handler) render(w http.ResponseWriter, data listData, category string) {
	if data.Items == nil {
		data.Items = []listItem{}
	}
	data.Category = category
	data.Categories = allCategories()
	data.EventTypes = eventTypesForCategory(category)
	uierrors.WriteJSON(w, http.StatusOK, data)
}
