// Package sessionctx resolves a stored bearer credential into the signed-in
// identity and its company, and caches the result per console session.
//
// The backend is the only authority on credentials. The one local check is
// a JWT's exp claim, read without verifying the signature, so that a token
// known to be expired never costs a network call.
package sessionctx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrUnauthenticated means there is no usable credential. It is the same
// value as backend.ErrUnauthenticated so either can be tested for.
var ErrUnauthenticated = backend.ErrUnauthenticated

// Resolver turns tokens into Sessions. It owns the session cache; nothing
// else writes to it.
type Resolver struct {
	client *backend.Client
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*Session
}

// NewResolver creates a resolver backed by client.
func NewResolver(client *backend.Client, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		client: client,
		log:    log,
		now:    time.Now,
		cache:  make(map[string]*Session),
	}
}

// Resolve fetches the identity behind token. It fails with
// ErrUnauthenticated when token is empty, is a JWT past its exp, or is
// rejected by the backend. The company lookup runs concurrently and never
// delays the return.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if expired(token, r.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
	}

	caller := r.client.Bearer(token)
	raw, err := caller.Me(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseIdentity(raw)
	if err != nil {
		return nil, err
	}

	s := newSession(token, id, r.now())
	if !id.HasOrganization() {
		s.settleOrganization(s.fallback())
		return s, nil
	}

	// The lookup belongs to the session, not to the request that created it.
	orgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.client.Timeout())
	go func() {
		defer cancel()
		org := s.fallback()
		raw, err := caller.Company(orgCtx, id.OrganizationRef)
		if err == nil {
			if parsed, perr := parseOrganization(raw); perr == nil {
				org = parsed
			} else {
				err = perr
			}
		}
		if err != nil {
			r.log.Warn("company lookup failed; using fallback organization",
				zap.String("company_id", id.OrganizationRef),
				zap.Error(err))
		}
		s.settleOrganization(org)
	}()
	return s, nil
}

// Session returns the cached session for key (a console session id) if it
// was resolved from the same token, resolving and caching otherwise.
func (r *Resolver) Session(ctx context.Context, key, token string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.cache[key]
	r.mu.Unlock()
	if ok && s.token == strings.TrimSpace(token) {
		return s, nil
	}
	return r.Refresh(ctx, key, token)
}

// Refresh re-resolves token and replaces the cached session for key. An
// unauthenticated result evicts the entry.
func (r *Resolver) Refresh(ctx context.Context, key, token string) (*Session, error) {
	s, err := r.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			r.Forget(key)
		}
		return nil, err
	}
	r.mu.Lock()
	r.cache[key] = s
	r.mu.Unlock()
	return s, nil
}

// Remember caches an already resolved session under key, so the request
// that signs in does not resolve the same token twice.
func (r *Resolver) Remember(key string, s *Session) {
	r.mu.Lock()
	r.cache[key] = s
	r.mu.Unlock()
}

// Forget drops the cached session for key, on logout.
func (r *Resolver) Forget(key string) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

// Len returns the number of cached sessions.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// expired reports whether token is a JWT whose exp is at or before now.
// Tokens that are not JWTs, or carry no exp, are left to the backend.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(now)
}
