package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListParams are the optional query parameters of a collection fetch.
type ListParams struct {
	StartDate string
	EndDate   string
	EventID   string
	CompanyID string
	Page      int
	Limit     int
}

// Values encodes the non-empty parameters.
func (p ListParams) Values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("startDate", p.StartDate)
	set("endDate", p.EndDate)
	set("eventId", p.EventID)
	set("companyId", p.CompanyID)
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// List fetches GET /{resource}.
func (a *Caller) List(ctx context.Context, resource string, p ListParams) ([]byte, error) {
	return a.do(ctx, http.MethodGet, resource, p.Values(), nil, resource)
}

// Create sends POST /{resource}.
func (a *Caller) Create(ctx context.Context, resource string, payload map[string]any) ([]byte, error) {
	return a.do(ctx, http.MethodPost, resource, nil, payload, resource)
}

// Update sends PUT /{resource}/{id}.
func (a *Caller) Update(ctx context.Context, resource, id string, payload map[string]any) ([]byte, error) {
	return a.do(ctx, http.MethodPut, resource, nil, payload, resource, id)
}

// Delete sends DELETE /{resource}/{id}.
func (a *Caller) Delete(ctx context.Context, resource, id string) ([]byte, error) {
	return a.do(ctx, http.MethodDelete, resource, nil, nil, resource, id)
}
