package meetings

import "time"

// SetNow fixes the clock used for the default month.
func (h *Handler) SetNow(now func() time.Time) { h.now = now }
