// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the matching error
// response when a check fails.
//
// # Two-Tier Authorization Pattern
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//
//  2. Handler-Level Gates (this package)
//     Used where the requirement depends on the request, such as the
//     resource named in the URL of the generic resource routes.
//
// Don't use gates in handlers that are behind role-specific middleware.
// Use authz.UserCtx(r) there to read the user without re-checking the role.
package gates

import (
	"net/http"

	uierrors "github.com/dalemusser/raciconsole/internal/app/features/errors"
	"github.com/dalemusser/raciconsole/internal/app/system/authz"
	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role      string
	Name      string
	UserID    string
	CompanyID string
	OK        bool
}

func current(r *http.Request) (Result, bool) {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		return Result{}, false
	}
	return Result{Role: role, Name: name, UserID: uid, CompanyID: authz.CompanyID(r), OK: true}, true
}

// RequireView ensures the user may open the resource's view.
func RequireView(w http.ResponseWriter, r *http.Request, rt models.ResourceType) Result {
	res, ok := current(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if !authz.CanView(r, rt) {
		uierrors.RenderForbidden(w, r, "You don't have access to "+lower(rt.Label)+".")
		return Result{OK: false}
	}
	return res
}

// RequireManage ensures the user may change records of the resource.
func RequireManage(w http.ResponseWriter, r *http.Request, rt models.ResourceType) Result {
	res, ok := current(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if !authz.CanManage(r, rt) {
		uierrors.RenderForbidden(w, r, "You can't change "+lower(rt.Label)+".")
		return Result{OK: false}
	}
	return res
}

func lower(s string) string {
	if s == "" {
		return "this page"
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
