package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRemover struct {
	calls atomic.Int32
	err   error
}

func (c *countingRemover) CleanupExpired(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("cleanup ran without a deadline")
	}
	return 3, c.err
}

func TestHandoffCleanup_RunsOnTickAndStops(t *testing.T) {
	remover := &countingRemover{}
	w := NewHandoffCleanup(remover, zap.NewNop(), 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for remover.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	after := remover.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if remover.calls.Load() != after {
		t.Error("worker kept running after Stop")
	}
}

func TestHandoffCleanup_ErrorDoesNotStopWorker(t *testing.T) {
	remover := &countingRemover{err: errors.New("mongo down")}
	w := NewHandoffCleanup(remover, zap.NewNop(), 5*time.Millisecond)
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for remover.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("worker stopped after a failed cleanup")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
