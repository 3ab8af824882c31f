package resourcesession

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/metrics"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

// RegistryConfig holds what every controller built by a Registry shares.
type RegistryConfig struct {
	Client     *backend.Client
	Log        *zap.Logger
	Timeout    time.Duration
	SuccessTTL time.Duration

	// ObserverFor returns the mutation observer for a session's views,
	// typically the audit log bound to the signed-in identity. Optional.
	ObserverFor func(sess *sessionctx.Session) mutation.Observer
}

type viewKey struct {
	sessionID string
	resource  string
}

type entry struct {
	c        *Controller
	lastUsed time.Time
}

// Registry holds the live controllers, one per console session and
// resource. Views are created on first use and torn down when idle or when
// their session ends.
type Registry struct {
	base context.Context
	cfg  RegistryConfig
	now  func() time.Time

	mu    sync.Mutex
	views map[viewKey]*entry
}

// NewRegistry creates an empty registry. Controllers it builds live under
// base, so cancelling base ends them all.
func NewRegistry(base context.Context, cfg RegistryConfig) *Registry {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Registry{
		base:  base,
		cfg:   cfg,
		now:   time.Now,
		views: make(map[viewKey]*entry),
	}
}

// Get returns the controller for (sessionID, rt), creating it if needed.
// A view built for an older credential of the same console session is
// replaced.
func (r *Registry) Get(sessionID string, sess *sessionctx.Session, rt models.ResourceType) (c *Controller, created bool) {
	k := viewKey{sessionID: sessionID, resource: rt.Name}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.views[k]; ok {
		if e.c.Session() == sess || e.c.Session().Token() == sess.Token() {
			e.lastUsed = r.now()
			return e.c, false
		}
		e.c.Close()
		delete(r.views, k)
	}
	var observer mutation.Observer
	if r.cfg.ObserverFor != nil {
		observer = r.cfg.ObserverFor(sess)
	}
	c = New(r.base, Config{
		Resource:   rt,
		Session:    sess,
		Client:     r.cfg.Client,
		Log:        r.cfg.Log,
		Timeout:    r.cfg.Timeout,
		SuccessTTL: r.cfg.SuccessTTL,
		Observer:   observer,
	})
	r.views[k] = &entry{c: c, lastUsed: r.now()}
	metrics.SetLiveViews(len(r.views))
	return c, true
}

// Peek returns an existing controller without creating one.
func (r *Registry) Peek(sessionID, resource string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[viewKey{sessionID: sessionID, resource: resource}]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.c, true
}

// Touch marks every view of a console session as used and returns how
// many it holds.
func (r *Registry) Touch(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for k, e := range r.views {
		if k.sessionID == sessionID {
			e.lastUsed = now
			n++
		}
	}
	return n
}

// CloseSession tears down every view of a console session, on logout.
func (r *Registry) CloseSession(sessionID string) int {
	return r.closeWhere(func(k viewKey, _ *entry) bool { return k.sessionID == sessionID })
}

// CloseIdle tears down views unused for longer than threshold.
func (r *Registry) CloseIdle(threshold time.Duration) int {
	cutoff := r.now().Add(-threshold)
	return r.closeWhere(func(_ viewKey, e *entry) bool { return e.lastUsed.Before(cutoff) })
}

// CloseAll tears down every view, on shutdown.
func (r *Registry) CloseAll() int {
	return r.closeWhere(func(viewKey, *entry) bool { return true })
}

func (r *Registry) closeWhere(match func(viewKey, *entry) bool) int {
	r.mu.Lock()
	var closing []*Controller
	for k, e := range r.views {
		if match(k, e) {
			closing = append(closing, e.c)
			delete(r.views, k)
		}
	}
	metrics.SetLiveViews(len(r.views))
	r.mu.Unlock()

	for _, c := range closing {
		c.Close()
	}
	return len(closing)
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
