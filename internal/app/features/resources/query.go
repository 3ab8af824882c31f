// internal/app/features/resources/query.go
package resources

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/authz"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/projection"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// fieldPrefix marks per-field text filters: ?f.name=fin
const fieldPrefix = "f."

// parseSpec reads the projection from the query string:
//
//	start, end   inclusive date range on the natural date field
//	status       exact status ("all" keeps everything)
//	q            fuzzy search on name, title and email
//	sort, desc   ordering override
//	f.<field>    substring filter on one field
//
// Bad dates are reported per field.
func parseSpec(r *http.Request) (projection.Spec, map[string]string) {
	var spec projection.Spec
	var bad map[string]string
	reject := func(field, msg string) {
		if bad == nil {
			bad = make(map[string]string)
		}
		bad[field] = msg
	}

	var dr projection.DateRange
	if raw := query.Get(r, "start"); raw != "" {
		t, ok := models.ParseTime(raw)
		if !ok {
			reject("start", "Start must be a date like 2024-05-01")
		}
		dr.Start = t
	}
	if raw := query.Get(r, "end"); raw != "" {
		t, ok := models.ParseTime(raw)
		if !ok {
			reject("end", "End must be a date like 2024-05-31")
		} else if !models.HasClock(raw) {
			// A bare end date covers that whole day.
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		dr.End = t
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		reject("end", "End must not be before start")
	}
	if dr.Active() {
		spec.DateRange = &dr
	}

	spec.Status = query.Get(r, "status")
	spec.Search = query.Search(r, "q")

	if field := query.Get(r, "sort"); field != "" {
		desc := strings.ToLower(query.Get(r, "desc"))
		spec.Sort = &projection.Sort{Field: field, Descending: desc == "1" || desc == "true"}
	}

	for key, vals := range r.URL.Query() {
		field, ok := strings.CutPrefix(key, fieldPrefix)
		if !ok || field == "" || len(vals) == 0 {
			continue
		}
		v := strings.TrimSpace(vals[0])
		if v == "" {
			continue
		}
		if spec.Text == nil {
			spec.Text = make(map[string]string)
		}
		spec.Text[field] = v
	}
	return spec, bad
}

// listParams reads what is passed through to the backend fetch. Only
// website admins may pick the company; everyone else stays scoped to their
// own.
func listParams(r *http.Request, rt models.ResourceType) backend.ListParams {
	p := backend.ListParams{EventID: query.Get(r, "eventId")}
	if authz.IsWebsiteAdmin(r) {
		p.CompanyID = query.Get(r, "companyId")
	} else if rt.CompanyScoped {
		p.CompanyID = authz.CompanyID(r)
	}
	return p
}
