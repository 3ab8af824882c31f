package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConsoleSessions loads cookie session ids from the console session store
// and resolves their sealed tokens through the session cache.
type ConsoleSessions struct {
	Sessions *sessions.Store
	Resolver *sessionctx.Resolver
}

// Load implements Loader. Each load counts as activity on the session.
func (c ConsoleSessions) Load(ctx context.Context, sessionID string) (*sessionctx.Session, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrNoSession
	}
	rec, err := c.Sessions.GetActive(ctx, oid)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load console session: %w", err)
	}
	token, err := c.Sessions.Token(rec)
	if err != nil {
		// A token sealed under a rotated key cannot be used again.
		return nil, fmt.Errorf("%w: %v", sessionctx.ErrUnauthenticated, err)
	}
	return c.Resolver.Session(ctx, sessionID, token)
}

// End implements Ender. An empty reason records a logout.
func (c ConsoleSessions) End(ctx context.Context, sessionID, reason string) error {
	c.Resolver.Forget(sessionID)
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return ErrNoSession
	}
	if reason == "" {
		reason = sessions.EndLogout
	}
	err = c.Sessions.Close(ctx, oid, reason)
	if errors.Is(err, sessions.ErrNotFound) {
		return ErrNoSession
	}
	return err
}
