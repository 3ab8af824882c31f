// Package notify holds the transient success and error messages shown on a
// resource view.
//
// Success notifications expire on their own after a short delay. Error
// notifications stay until the operator dismisses them.
package notify

import (
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/htmlsanitize"
	"github.com/google/uuid"
)

// DefaultSuccessTTL is how long a success notification stays visible.
const DefaultSuccessTTL = 3000 * time.Millisecond

// Generic messages used when a caller or the backend supplies none.
const (
	GenericSuccess = "Saved"
	GenericError   = "Something went wrong. Please try again."
)

// Kind distinguishes success from error notifications.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Mode controls how a new notification relates to those already shown.
type Mode int

const (
	// ModeAppend keeps existing notifications.
	ModeAppend Mode = iota
	// ModeReplace clears existing notifications first.
	ModeReplace
)

// Notification is one message in the queue. A zero ExpiresAt means it
// persists until dismissed.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Persistent reports whether n waits for an explicit dismissal.
func (n Notification) Persistent() bool { return n.ExpiresAt.IsZero() }

// Bus is a per-view notification queue. It is safe for concurrent use.
type Bus struct {
	successTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	items  []Notification
	timers map[string]*time.Timer
	closed bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithSuccessTTL overrides DefaultSuccessTTL. Non-positive values are ignored.
func WithSuccessTTL(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.successTTL = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		successTTL: DefaultSuccessTTL,
		now:        time.Now,
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish adds a notification and returns it with its id and expiry set.
// The message is reduced to plain text; an empty message becomes the
// generic text for its kind. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(kind Kind, message string, mode Mode) Notification {
	msg := htmlsanitize.PlainText(message)
	if msg == "" {
		msg = GenericError
		if kind == KindSuccess {
			msg = GenericSuccess
		}
	}
	now := b.now()
	n := Notification{
		ID:        uuid.NewString(),
		Message:   msg,
		Kind:      kind,
		CreatedAt: now,
	}
	if kind == KindSuccess {
		n.ExpiresAt = now.Add(b.successTTL)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return n
	}
	if mode == ModeReplace {
		b.clearLocked()
	}
	b.items = append(b.items, n)
	if !n.Persistent() {
		id := n.ID
		b.timers[id] = time.AfterFunc(b.successTTL, func() { b.Dismiss(id) })
	}
	return n
}

// Success publishes a success notification, keeping existing ones.
func (b *Bus) Success(message string) Notification {
	return b.Publish(KindSuccess, message, ModeAppend)
}

// Error publishes an error notification, keeping existing ones.
func (b *Bus) Error(message string) Notification {
	return b.Publish(KindError, message, ModeAppend)
}

// Dismiss removes a notification. It reports whether id was present.
func (b *Bus) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	for i, n := range b.items {
		if n.ID == id {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the visible notifications, oldest first. Entries already
// past their expiry are left out even if their timer has not fired yet.
func (b *Bus) List() []Notification {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, 0, len(b.items))
	for _, n := range b.items {
		if !n.Persistent() && !now.Before(n.ExpiresAt) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Close stops all timers and drops the queue. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	b.clearLocked()
	b.closed = true
	b.mu.Unlock()
}

func (b *Bus) clearLocked() {
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.items = nil
}
