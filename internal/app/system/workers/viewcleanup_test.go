package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingCloser struct {
	calls     atomic.Int32
	threshold atomic.Int64
}

func (c *countingCloser) CloseIdle(threshold time.Duration) int {
	c.calls.Add(1)
	c.threshold.Store(int64(threshold))
	return 1
}

func TestViewCleanup_RunsOnTickAndStops(t *testing.T) {
	closer := &countingCloser{}
	w := NewViewCleanup(closer, zap.NewNop(), 5*time.Millisecond, time.Minute)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for closer.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if got := time.Duration(closer.threshold.Load()); got != time.Minute {
		t.Errorf("threshold: got %v, want 1m", got)
	}
	after := closer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if closer.calls.Load() != after {
		t.Error("worker kept running after Stop")
	}
}
