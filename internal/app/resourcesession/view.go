package resourcesession

import (
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// View is one rendering of a resource view: the projected rows plus the
// notifications to show alongside them.
type View struct {
	Resource      string                `json:"resource"`
	Label         string                `json:"label"`
	Rows          []models.Record       `json:"rows"`
	Total         int                   `json:"total"`
	Version       uint64                `json:"version"`
	Loaded        bool                  `json:"loaded"`
	Loading       bool                  `json:"loading"`
	CanManage     bool                  `json:"canManage"`
	Notifications []notify.Notification `json:"notifications"`
}

// State is a controller summary.
type State struct {
	Resource        string `json:"resource"`
	Loaded          bool   `json:"loaded"`
	Loading         bool   `json:"loading"`
	Version         uint64 `json:"version"`
	Count           int    `json:"count"`
	Shape           string `json:"shape"`
	Unauthenticated bool   `json:"unauthenticated"`
	Closed          bool   `json:"closed"`
	LastError       string `json:"lastError,omitempty"`
}
