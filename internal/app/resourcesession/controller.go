// Package resourcesession composes the session resolver, normalizer,
// projection engine, mutation coordinator and notification bus into the
// controller behind one resource view.
//
// A Controller lives as long as the operator keeps the view open. It owns
// its collection and notifications; the Session it was built with is shared
// and read-only.
package resourcesession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/metrics"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/app/system/projection"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrForbidden is returned for mutations the identity's role may not make.
	ErrForbidden = errors.New("not permitted for this role")

	// ErrClosed is returned by a controller after Close.
	ErrClosed = errors.New("view closed")
)

// Config wires a Controller.
type Config struct {
	Resource models.ResourceType
	Session  *sessionctx.Session
	Client   *backend.Client
	Log      *zap.Logger

	// Timeout bounds each backend call; default backend.DefaultTimeout.
	Timeout time.Duration
	// SuccessTTL is how long success notifications stay; default 3s.
	SuccessTTL time.Duration
	// Observer additionally receives every mutation outcome (audit).
	Observer mutation.Observer
}

// Controller is the server-side state of one resource view.
type Controller struct {
	rt      models.ResourceType
	sess    *sessionctx.Session
	caller  *backend.Caller
	log     *zap.Logger
	timeout time.Duration

	// ctx lives until Close; backend calls made on the view's behalf use it.
	ctx    context.Context
	cancel context.CancelFunc

	coll  *mutation.Collection
	coord *mutation.Coordinator
	bus   *notify.Bus
	memo  *projection.Memo

	mu      sync.Mutex
	closed  bool
	loaded  bool
	loading int
	loadSeq uint64
	params  backend.ListParams
	shape   normalize.Shape
	unauth  bool
	lastErr string
}

// New builds a controller. parent bounds the view's lifetime and should
// not be a request context.
func New(parent context.Context, cfg Config) *Controller {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		rt:      cfg.Resource,
		sess:    cfg.Session,
		caller:  cfg.Client.Bearer(cfg.Session.Token()),
		log:     log.With(zap.String("resource", cfg.Resource.Name), zap.String("user_id", cfg.Session.Identity.ID)),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		coll:    mutation.NewCollection(nil),
		bus:     notify.New(notify.WithSuccessTTL(cfg.SuccessTTL)),
		memo:    projection.NewMemo(projection.ForResource(cfg.Resource)),
	}
	c.coord = mutation.New(mutation.Config{
		Resource:   cfg.Resource,
		Collection: c.coll,
		Remote:     c.caller,
		Notify:     c.bus,
		Log:        c.log,
		Observer:   observers{mutation.ObserverFunc(c.mutationFinished), cfg.Observer},
	})
	return c
}

// Resource is the descriptor the controller was built for.
func (c *Controller) Resource() models.ResourceType { return c.rt }

// Session is the session the controller acts for.
func (c *Controller) Session() *sessionctx.Session { return c.sess }

// Load fetches the collection. Company-scoped resources are limited to the
// session's company unless p names one. Failures other than
// ErrUnauthenticated become error notifications and leave the view usable;
// the error is still returned for logging. A load superseded by a newer one,
// or finishing after Close, is discarded.
func (c *Controller) Load(ctx context.Context, p backend.ListParams) error {
	if c.rt.CompanyScoped && p.CompanyID == "" {
		p.CompanyID = c.sess.CompanyID()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loadSeq++
	seq := c.loadSeq
	c.loading++
	c.params = p
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	raw, err := c.caller.List(callCtx, c.rt.Name, p)

	var res normalize.Result
	if err == nil {
		res, err = normalize.Records(raw, c.rt.Name)
		metrics.ObserveShape(c.rt.Name, res.Shape.String())
		if res.Dropped > 0 {
			c.log.Debug("dropped unaddressable records", zap.Int("dropped", res.Dropped))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.loadSeq {
		return nil
	}
	switch {
	case err == nil:
		c.coll.Replace(res.Records)
		c.shape = res.Shape
		c.loaded = true
		c.lastErr = ""
		return nil
	case errors.Is(err, backend.ErrUnauthenticated):
		c.unauth = true
		return err
	case errors.Is(err, normalize.ErrMalformedResponse):
		c.coll.Replace(res.Records)
		c.shape = normalize.ShapeUnknown
		c.loaded = true
	}
	c.lastErr = err.Error()
	c.bus.Error(c.loadMessage(err))
	c.log.Warn("load failed", zap.Error(err))
	return fmt.Errorf("load %s: %w", c.rt.Name, err)
}

func (c *Controller) loadMessage(err error) string {
	label := strings.ToLower(c.rt.Label)
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Loading %s timed out. Please try again.", label)
	case errors.As(err, &apiErr) && apiErr.UserMessage() != "":
		return apiErr.UserMessage()
	case errors.Is(err, normalize.ErrMalformedResponse):
		if msg, ok := strings.CutPrefix(err.Error(), normalize.ErrMalformedResponse.Error()+": "); ok && msg != "" {
			return msg
		}
		return fmt.Sprintf("The server sent %s in an unexpected format.", label)
	case errors.Is(err, backend.ErrNetworkFailure):
		return "Could not reach the server. Please check your connection."
	}
	return fmt.Sprintf("Could not load %s.", label)
}

// Params returns the parameters of the latest Load, company scope included.
func (c *Controller) Params() backend.ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Reload repeats the last Load with the same parameters.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	p := c.params
	c.mu.Unlock()
	return c.Load(ctx, p)
}

// View projects the current collection. Repeated calls with an unchanged
// collection and spec return the same row slice.
func (c *Controller) View(spec projection.Spec) View {
	records, version := c.coll.Snapshot()
	rows := c.memo.View(version, records, spec)
	st := c.State()
	return View{
		Resource:      c.rt.Name,
		Label:         c.rt.Label,
		Rows:          rows,
		Total:         len(records),
		Version:       version,
		Loaded:        st.Loaded,
		Loading:       st.Loading,
		CanManage:     c.rt.CanManage(c.sess.Identity.Role),
		Notifications: c.bus.List(),
	}
}

// Create optimistically adds a record.
func (c *Controller) Create(payload map[string]any) (*mutation.Pending, error) {
	return c.apply(mutation.Intent{Kind: mutation.KindCreate, Payload: payload})
}

// Update optimistically changes a record.
func (c *Controller) Update(id string, payload map[string]any) (*mutation.Pending, error) {
	return c.apply(mutation.Intent{Kind: mutation.KindUpdate, TargetID: id, Payload: payload})
}

// Delete optimistically removes a record.
func (c *Controller) Delete(id string) (*mutation.Pending, error) {
	return c.apply(mutation.Intent{Kind: mutation.KindDelete, TargetID: id})
}

func (c *Controller) apply(in mutation.Intent) (*mutation.Pending, error) {
	if !c.rt.CanManage(c.sess.Identity.Role) {
		return nil, ErrForbidden
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if in.Kind == mutation.KindCreate && c.rt.CompanyScoped && c.sess.CompanyID() != "" {
		if _, set := in.Payload["companyId"]; !set {
			p := make(map[string]any, len(in.Payload)+1)
			for k, v := range in.Payload {
				p[k] = v
			}
			p["companyId"] = c.sess.CompanyID()
			in.Payload = p
		}
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	p, err := c.coord.Apply(ctx, in)
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		<-p.Done()
		cancel()
	}()
	return p, nil
}

// mutationFinished reacts to outcomes the view itself cares about.
func (c *Controller) mutationFinished(ctx context.Context, o mutation.Outcome) {
	metrics.ObserveMutation(o.Resource, string(o.Kind), o.State.String())
	if errors.Is(o.Err, backend.ErrUnauthenticated) {
		c.mu.Lock()
		c.unauth = true
		c.mu.Unlock()
		return
	}
	if o.NeedsReload {
		go func() {
			if err := c.Reload(c.ctx); err != nil && !errors.Is(err, ErrClosed) {
				c.log.Debug("reload after create failed", zap.Error(err))
			}
		}()
	}
}

// Notifications lists the visible notifications.
func (c *Controller) Notifications() []notify.Notification { return c.bus.List() }

// Dismiss removes one notification.
func (c *Controller) Dismiss(id string) bool { return c.bus.Dismiss(id) }

// MutationState reports where a record is in its mutation lifecycle.
func (c *Controller) MutationState(id string) mutation.State { return c.coord.State(id) }

// State summarizes the controller for diagnostics and polling clients.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Resource:        c.rt.Name,
		Loaded:          c.loaded,
		Loading:         c.loading > 0,
		Version:         c.coll.Version(),
		Count:           c.coll.Len(),
		Shape:           c.shape.String(),
		Unauthenticated: c.unauth,
		Closed:          c.closed,
		LastError:       c.lastErr,
	}
}

// Wait blocks until in-flight mutations settle.
func (c *Controller) Wait() { c.coord.Wait() }

// Close cancels in-flight work and drops notifications. Results arriving
// afterwards are discarded. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.bus.Close()
	c.memo.Invalidate()
}

// observers fans an outcome out to several observers, skipping nil ones.
type observers []mutation.Observer

func (os observers) MutationFinished(ctx context.Context, o mutation.Outcome) {
	for _, ob := range os {
		if ob != nil {
			ob.MutationFinished(ctx, o)
		}
	}
}
