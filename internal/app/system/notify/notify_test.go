package notify

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBus() (*Bus, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	// A long real TTL keeps timers from racing the fake clock.
	return New(WithClock(clock.Now), WithSuccessTTL(time.Hour)), clock
}

func TestPublish_SuccessExpires(t *testing.T) {
	b := New(WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }))
	n := b.Success("Department created")
	if got := n.ExpiresAt.Sub(n.CreatedAt); got != 3000*time.Millisecond {
		t.Errorf("success TTL: got %v, want 3s", got)
	}
	b.Close()
}

func TestPublish_ErrorPersists(t *testing.T) {
	b, clock := newTestBus()
	defer b.Close()

	e := b.Error("Delete failed")
	if !e.Persistent() {
		t.Fatal("error notification should persist")
	}
	b.Success("ok")
	clock.Advance(2 * time.Hour)

	list := b.List()
	if len(list) != 1 || list[0].ID != e.ID {
		t.Fatalf("expected only the error to remain, got %+v", list)
	}
}

func TestPublish_MultipleCoexist(t *testing.T) {
	b, _ := newTestBus()
	defer b.Close()

	b.Error("first")
	b.Error("second")
	b.Success("third")
	if got := len(b.List()); got != 3 {
		t.Errorf("expected 3 notifications, got %d", got)
	}
}

func TestPublish_ReplaceClears(t *testing.T) {
	b, _ := newTestBus()
	defer b.Close()

	b.Error("old")
	b.Success("older")
	n := b.Publish(KindError, "new", ModeReplace)
	list := b.List()
	if len(list) != 1 || list[0].ID != n.ID {
		t.Errorf("expected only the replacement, got %+v", list)
	}
}

func TestPublish_SanitizesAndDefaults(t *testing.T) {
	b, _ := newTestBus()
	defer b.Close()

	n := b.Error("<b>Name</b> already exists<script>x()</script>")
	if n.Message != "Name already exists" {
		t.Errorf("message: got %q", n.Message)
	}
	if n := b.Error(""); n.Message != GenericError {
		t.Errorf("empty error: got %q", n.Message)
	}
	if n := b.Success("   "); n.Message != GenericSuccess {
		t.Errorf("empty success: got %q", n.Message)
	}
}

func TestDismiss(t *testing.T) {
	b, _ := newTestBus()
	defer b.Close()

	n := b.Error("boom")
	if !b.Dismiss(n.ID) {
		t.Fatal("dismiss should report true for a present id")
	}
	if b.Dismiss(n.ID) {
		t.Error("second dismiss should report false")
	}
	if len(b.List()) != 0 {
		t.Error("list should be empty")
	}
}

func TestSuccess_TimerRemoves(t *testing.T) {
	b := New(WithSuccessTTL(10 * time.Millisecond))
	defer b.Close()
	b.Success("saved")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		n := len(b.items)
		b.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("success notification was not removed by its timer")
}

func TestClose_IgnoresLatePublish(t *testing.T) {
	b, _ := newTestBus()
	b.Error("before")
	b.Close()
	b.Error("after")
	if got := len(b.List()); got != 0 {
		t.Errorf("closed bus should be empty, got %d", got)
	}
}
