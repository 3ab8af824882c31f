// internal/app/system/workers/viewcleanup.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleCloser tears down views unused for longer than a threshold and
// reports how many it closed.
type IdleCloser interface {
	CloseIdle(threshold time.Duration) int
}

// ViewCleanup is a background worker that closes idle resource views.
type ViewCleanup struct {
	views    IdleCloser
	log      *zap.Logger
	interval time.Duration
	idleTTL  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewViewCleanup creates a view cleanup worker.
func NewViewCleanup(views IdleCloser, logger *zap.Logger, interval, idleTTL time.Duration) *ViewCleanup {
	return &ViewCleanup{
		views:    views,
		log:      logger,
		interval: interval,
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *ViewCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("view cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_ttl", w.idleTTL))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ViewCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("view cleanup worker stopped")
}

func (w *ViewCleanup) run() {
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

func (w *ViewCleanup) cleanup() {
	if n := w.views.CloseIdle(w.idleTTL); n > 0 {
		w.log.Debug("closed idle views", zap.Int("count", n))
	}
}
