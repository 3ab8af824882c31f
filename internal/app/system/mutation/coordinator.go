// Package mutation applies create, update and delete intents to a view's
// collection optimistically, sends them to the backend, and reconciles or
// rolls back when the backend answers.
//
// Each target id moves through Idle -> Pending -> {Committed | RolledBack}.
// While an id is Pending a second intent for it is refused with
// ErrConcurrentMutation and never reaches the network. Different ids
// proceed concurrently.
package mutation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/normalize"
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceholderPrefix marks ids assigned locally to records not yet created.
const PlaceholderPrefix = "tmp-"

// Kind is the type of change an intent asks for.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

func (k Kind) pastTense() string {
	switch k {
	case KindCreate:
		return "created"
	case KindUpdate:
		return "updated"
	case KindDelete:
		return "deleted"
	}
	return string(k)
}

// State is where a target id is in its mutation lifecycle.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Intent is one requested change. TargetID is required for update and
// delete. Payload holds canonical field names.
type Intent struct {
	Kind     Kind
	TargetID string
	Payload  map[string]any
}

// Remote is the part of the backend a coordinator calls.
type Remote interface {
	Create(ctx context.Context, resource string, payload map[string]any) ([]byte, error)
	Update(ctx context.Context, resource, id string, payload map[string]any) ([]byte, error)
	Delete(ctx context.Context, resource, id string) ([]byte, error)
}

// Outcome describes a finished mutation.
type Outcome struct {
	Resource string
	Kind     Kind
	TargetID string // the placeholder id for creates
	State    State

	// Record is the server's version after a committed create or update,
	// when the response carried one.
	Record *models.Record

	// NeedsReload is set when a create committed but the response carried
	// no record to replace the placeholder with.
	NeedsReload bool

	Err      error // *RejectedError when rolled back
	Duration time.Duration
}

// Observer is told about every finished mutation.
type Observer interface {
	MutationFinished(ctx context.Context, o Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome)

func (f ObserverFunc) MutationFinished(ctx context.Context, o Outcome) { f(ctx, o) }

// Config wires a Coordinator.
type Config struct {
	Resource   models.ResourceType
	Collection *Collection
	Remote     Remote
	Notify     *notify.Bus // optional
	Observer   Observer    // optional
	Log        *zap.Logger // optional
	Now        func() time.Time
}

// Coordinator runs intents for one resource collection.
type Coordinator struct {
	rt       models.ResourceType
	coll     *Collection
	remote   Remote
	bus      *notify.Bus
	observer Observer
	log      *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	states map[string]State
	wg     sync.WaitGroup
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		rt:       cfg.Resource,
		coll:     cfg.Collection,
		remote:   cfg.Remote,
		bus:      cfg.Notify,
		observer: cfg.Observer,
		log:      cfg.Log,
		now:      cfg.Now,
		states:   make(map[string]State),
	}
	if c.coll == nil {
		c.coll = NewCollection(nil)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Collection returns the collection the coordinator edits.
func (c *Coordinator) Collection() *Collection { return c.coll }

// State reports where id is in its lifecycle. Ids never touched are Idle.
func (c *Coordinator) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[id]
}

// claim moves id to Pending unless it already is.
func (c *Coordinator) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[id] == StatePending {
		return false
	}
	c.states[id] = StatePending
	return true
}

func (c *Coordinator) settle(id string, s State) {
	c.mu.Lock()
	c.states[id] = s
	c.mu.Unlock()
}

// Pending is a mutation that has been applied locally and is waiting on
// the backend.
type Pending struct {
	// ID is the target id, or the placeholder id for a create.
	ID   string
	Kind Kind

	done    chan struct{}
	outcome Outcome
}

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the mutation settles or ctx ends. The returned error is
// the outcome's Err, or ctx.Err() if ctx ended first. The mutation keeps
// running when ctx ends.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.outcome.Err
	case <-ctx.Done():
		return Outcome{Kind: p.Kind, TargetID: p.ID, State: StatePending}, ctx.Err()
	}
}

// Apply validates the intent, applies it to the collection and sends it to
// the backend in the background. It returns as soon as the local change is
// visible. ctx governs the backend call, so it must outlive the caller's
// request when used from an HTTP handler.
//
// Validation failures return *ValidationError; a busy target returns
// ErrConcurrentMutation. In both cases nothing is applied or sent.
func (c *Coordinator) Apply(ctx context.Context, in Intent) (*Pending, error) {
	switch in.Kind {
	case KindCreate:
		return c.applyCreate(ctx, in)
	case KindUpdate:
		return c.applyUpdate(ctx, in)
	case KindDelete:
		return c.applyDelete(ctx, in)
	}
	return nil, fmt.Errorf("unknown mutation kind %q", in.Kind)
}

// Do applies the intent and waits for the backend's answer.
func (c *Coordinator) Do(ctx context.Context, in Intent) (Outcome, error) {
	p, err := c.Apply(ctx, in)
	if err != nil {
		return Outcome{Resource: c.rt.Name, Kind: in.Kind, TargetID: in.TargetID, State: StateIdle, Err: err}, err
	}
	return p.Wait(ctx)
}

// Wait blocks until every in-flight mutation has settled.
func (c *Coordinator) Wait() { c.wg.Wait() }

func (c *Coordinator) applyCreate(ctx context.Context, in Intent) (*Pending, error) {
	payload, verr := check(c.rt, in.Payload, false)
	if verr != nil {
		return nil, verr
	}
	id := PlaceholderPrefix + uuid.NewString()
	c.claim(id)

	now := c.now().UTC()
	placeholder := models.Record{ID: id, CreatedAt: now, UpdatedAt: now, Placeholder: true}
	placeholder = placeholder.WithChanges(payload, now)
	c.coll.appendRecord(placeholder)

	return c.launch(ctx, KindCreate, id, func(ctx context.Context) (Outcome, error) {
		raw, err := c.remote.Create(ctx, c.rt.Name, payload)
		if err != nil {
			c.coll.remove(id)
			return Outcome{}, err
		}
		if rec, ok := normalize.Record(raw, c.rt.Singular); ok {
			if !c.coll.put(id, rec) {
				// A reload dropped the placeholder; make sure the new record shows.
				c.coll.insert(rec)
			}
			return Outcome{Record: &rec}, nil
		}
		c.coll.put(id, withoutPlaceholder(placeholder))
		return Outcome{NeedsReload: true}, nil
	}), nil
}

func (c *Coordinator) applyUpdate(ctx context.Context, in Intent) (*Pending, error) {
	if in.TargetID == "" {
		return nil, ErrMissingTarget
	}
	payload, verr := check(c.rt, in.Payload, true)
	if verr != nil {
		return nil, verr
	}
	if !c.claim(in.TargetID) {
		return nil, ErrConcurrentMutation
	}
	snapshot, _, ok := c.coll.Find(in.TargetID)
	if !ok {
		c.settle(in.TargetID, StateIdle)
		return nil, ErrNotFound
	}
	fetched := c.coll.fetchGeneration()
	c.coll.put(in.TargetID, snapshot.WithChanges(payload, c.now().UTC()))

	id := in.TargetID
	return c.launch(ctx, KindUpdate, id, func(ctx context.Context) (Outcome, error) {
		raw, err := c.remote.Update(ctx, c.rt.Name, id, payload)
		if err != nil {
			// A list fetched since the optimistic edit is newer than the snapshot.
			if c.coll.fetchGeneration() == fetched {
				c.coll.put(id, snapshot)
			}
			return Outcome{}, err
		}
		if rec, ok := normalize.Record(raw, c.rt.Singular); ok && rec.ID == id {
			c.coll.put(id, rec)
			return Outcome{Record: &rec}, nil
		}
		return Outcome{}, nil
	}), nil
}

func (c *Coordinator) applyDelete(ctx context.Context, in Intent) (*Pending, error) {
	if in.TargetID == "" {
		return nil, ErrMissingTarget
	}
	if !c.claim(in.TargetID) {
		return nil, ErrConcurrentMutation
	}
	fetched := c.coll.fetchGeneration()
	removed, around, ok := c.coll.remove(in.TargetID)
	if !ok {
		c.settle(in.TargetID, StateIdle)
		return nil, ErrNotFound
	}

	id := in.TargetID
	return c.launch(ctx, KindDelete, id, func(ctx context.Context) (Outcome, error) {
		if _, err := c.remote.Delete(ctx, c.rt.Name, id); err != nil {
			if c.coll.fetchGeneration() == fetched {
				c.coll.restore(removed, around)
			}
			return Outcome{}, err
		}
		return Outcome{}, nil
	}), nil
}

// launch runs the backend half of a mutation in its own goroutine and
// settles it: state, notification, observer, then Done.
func (c *Coordinator) launch(ctx context.Context, kind Kind, id string, send func(context.Context) (Outcome, error)) *Pending {
	p := &Pending{ID: id, Kind: kind, done: make(chan struct{})}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start := time.Now()
		out, err := send(ctx)
		out.Resource = c.rt.Name
		out.Kind = kind
		out.TargetID = id
		out.Duration = time.Since(start)

		if err != nil {
			rej := &RejectedError{Kind: kind, Resource: c.rt.Name, TargetID: id, Err: err}
			out.State = StateRolledBack
			out.Err = rej
			c.settle(id, StateRolledBack)
			if c.bus != nil {
				c.bus.Error(rej.Message(c.noun()))
			}
			c.log.Info("mutation rolled back",
				zap.String("resource", c.rt.Name),
				zap.String("kind", string(kind)),
				zap.String("id", id),
				zap.Error(err))
		} else {
			out.State = StateCommitted
			c.settle(id, StateCommitted)
			if c.bus != nil {
				c.bus.Success(fmt.Sprintf("%s %s", c.noun(), kind.pastTense()))
			}
		}
		if c.observer != nil {
			c.observer.MutationFinished(context.WithoutCancel(ctx), out)
		}
		p.outcome = out
		close(p.done)
	}()
	return p
}

func (c *Coordinator) noun() string {
	if c.rt.Noun != "" {
		return c.rt.Noun
	}
	return c.rt.Name
}

func withoutPlaceholder(r models.Record) models.Record {
	r.Placeholder = false
	return r
}

// IsPlaceholder reports whether id was assigned locally to a pending create.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}
