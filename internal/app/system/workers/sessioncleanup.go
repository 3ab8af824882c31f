// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SessionCleanup is a background worker that closes inactive console
// sessions and tears down whatever the process holds for them.
type SessionCleanup struct {
	sessions          *sessions.Store
	onClosed          func(sessionID string)
	log               *zap.Logger
	interval          time.Duration
	inactiveThreshold time.Duration
	stopCh            chan struct{}
	wg                sync.WaitGroup
}

// NewSessionCleanup creates a new session cleanup worker.
//
// Parameters:
//   - sessStore: the console sessions store
//   - onClosed: called with each closed session's id (view teardown, cache eviction); may be nil
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 1 minute)
//   - inactiveThreshold: how long a session must be inactive before closing (e.g., 2 hours)
func NewSessionCleanup(sessStore *sessions.Store, onClosed func(sessionID string), logger *zap.Logger, interval, inactiveThreshold time.Duration) *SessionCleanup {
	return &SessionCleanup{
		sessions:          sessStore,
		onClosed:          onClosed,
		log:               logger,
		interval:          interval,
		inactiveThreshold: inactiveThreshold,
		stopCh:            make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("inactive_threshold", w.inactiveThreshold))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *SessionCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
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

func (w *SessionCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	ids, err := w.sessions.CloseInactive(ctx, w.inactiveThreshold)
	if err != nil {
		w.log.Error("failed to close inactive sessions", zap.Error(err))
		return
	}

	if w.onClosed != nil {
		for _, id := range ids {
			w.onClosed(id.Hex())
		}
	}
	if len(ids) > 0 {
		w.log.Info("closed inactive sessions", zap.Int("count", len(ids)))
	}
}
