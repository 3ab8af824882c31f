// internal/app/system/workers/handoffcleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ExpiredRemover deletes expired short-lived records. The handoff store
// satisfies it.
type ExpiredRemover interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// HandoffCleanup removes expired auth handoffs. The TTL index normally does
// this, but MongoDB only runs it about once a minute.
type HandoffCleanup struct {
	store    ExpiredRemover
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewHandoffCleanup creates a new handoff cleanup worker.
func NewHandoffCleanup(store ExpiredRemover, logger *zap.Logger, interval time.Duration) *HandoffCleanup {
	return &HandoffCleanup{
		store:    store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *HandoffCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("handoff cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *HandoffCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("handoff cleanup worker stopped")
}

func (w *HandoffCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *HandoffCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	n, err := w.store.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to remove expired handoffs", zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Debug("removed expired handoffs", zap.Int64("count", n))
	}
}
