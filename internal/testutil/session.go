package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/raciconsole/internal/app/system/auth"
	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"go.uber.org/zap"
)

// Resolve resolves Token against client into a live session.
func Resolve(t *testing.T, client *backend.Client) *sessionctx.Session {
	t.Helper()
	sess, err := sessionctx.NewResolver(client, zap.NewNop()).Resolve(context.Background(), Token)
	if err != nil {
		t.Fatalf("resolve test session: %v", err)
	}
	return sess
}

// WithSession puts the user behind sess on r as console session sessionID.
func WithSession(r *http.Request, sessionID string, sess *sessionctx.Session) *http.Request {
	id := sess.Identity
	return auth.WithTestUser(r, &auth.SessionUser{
		SessionID: sessionID,
		ID:        id.ID,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		CompanyID: id.OrganizationRef,
		Session:   sess,
	})
}
