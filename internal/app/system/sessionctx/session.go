package sessionctx

import (
	"context"
	"time"

	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Session is a resolved identity plus its company, for one credential.
//
// The identity is available as soon as the session exists. The company is
// fetched in the background; Organization waits for it only as long as the
// caller allows and otherwise answers with the fallback.
type Session struct {
	Identity   models.Identity
	ResolvedAt time.Time

	token    string
	orgReady chan struct{}
	org      models.Organization
}

// newSession returns a session whose organization is settled by a later
// call to settleOrganization.
func newSession(token string, id models.Identity, now time.Time) *Session {
	return &Session{
		Identity:   id,
		ResolvedAt: now,
		token:      token,
		orgReady:   make(chan struct{}),
	}
}

func (s *Session) settleOrganization(org models.Organization) {
	s.org = org
	close(s.orgReady)
}

// Token is the bearer credential the session was resolved from.
func (s *Session) Token() string { return s.token }

// CompanyID is the company every company-scoped fetch is limited to. It is
// empty for identities without a company.
func (s *Session) CompanyID() string { return s.Identity.OrganizationRef }

// Organization returns the identity's company. If the lookup has not
// finished when ctx ends, or it failed, the fallback organization is
// returned. Identities without a company get the zero Organization.
func (s *Session) Organization(ctx context.Context) models.Organization {
	select {
	case <-s.orgReady:
		return s.org
	default:
	}
	select {
	case <-s.orgReady:
		return s.org
	case <-ctx.Done():
		return s.fallback()
	}
}

// OrganizationReady reports whether the company lookup has settled.
func (s *Session) OrganizationReady() bool {
	select {
	case <-s.orgReady:
		return true
	default:
		return false
	}
}

func (s *Session) fallback() models.Organization {
	if !s.Identity.HasOrganization() {
		return models.Organization{}
	}
	return models.FallbackOrganization(s.Identity)
}
