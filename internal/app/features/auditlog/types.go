// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/raciconsole/internal/app/store/audit"
)

// listItem is a single audit event row.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	CompanyID     string            `json:"companyId,omitempty"`
	UserID        string            `json:"userId,omitempty"`
	Email         string            `json:"email,omitempty"`
	Resource      string            `json:"resource,omitempty"`
	TargetID      string            `json:"targetId,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listData is the audit log response.
type listData struct {
	Items []listItem `json:"items"`

	// Filters
	Category  string `json:"category,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Resource  string `json:"resource,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`

	// Filter options
	Categories []categoryOption `json:"categories"`
	EventTypes []string         `json:"eventTypes"`

	// Pagination
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	Shown      int   `json:"shown"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
	PrevPage   int   `json:"prevPage"`
	NextPage   int   `json:"nextPage"`
}

// categoryOption is a category for the filter dropdown.
type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventSessionRejected,
		audit.EventRegistrationSubmitted,
		audit.EventPasswordResetRequested,
		audit.EventOTPVerified,
		audit.EventOTPFailed,
		audit.EventPasswordReset,
	}

	adminEvents := []string{
		audit.EventRecordCreated,
		audit.EventRecordUpdated,
		audit.EventRecordDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return []string{}
	}
}
