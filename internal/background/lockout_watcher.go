package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mavelar/gatekeep/internal/services"
)

// LockoutWatcher periodically reconciles expired lockout state and feeds a
// countdown callback while a lockout is in effect. Drives the login
// screen's "try again in N seconds" display.
type LockoutWatcher struct {
	lockout  *services.LockoutService
	logger   *slog.Logger
	interval time.Duration
	onTick   func(remainingSeconds int64)
	stopCh   chan struct{}
}

// NewLockoutWatcher creates a new lockout watcher. onTick may be nil when
// only the reconcile side effect is wanted.
func NewLockoutWatcher(
	lockout *services.LockoutService,
	logger *slog.Logger,
	interval time.Duration,
	onTick func(remainingSeconds int64),
) *LockoutWatcher {
	return &LockoutWatcher{
		lockout:  lockout,
		logger:   logger,
		interval: interval,
		onTick:   onTick,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the watcher until the lockout clears, Stop is called, or the
// context is cancelled. The ticker is always released on return.
func (w *LockoutWatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately so the first countdown frame is not a tick late.
	if done := w.runTick(ctx); done {
		return
	}

	for {
		select {
		case <-ticker.C:
			if done := w.runTick(ctx); done {
				return
			}
		case <-w.stopCh:
			w.logger.Info("lockout watcher stopped")
			return
		case <-ctx.Done():
			w.logger.Info("lockout watcher context cancelled")
			return
		}
	}
}

// runTick reconciles and reports remaining time. Returns true once the
// lockout has cleared.
func (w *LockoutWatcher) runTick(ctx context.Context) bool {
	if !w.lockout.Reconcile(ctx) {
		w.logger.Error("lockout reconcile failed")
	}

	locked, remaining := w.lockout.Status(ctx)
	if w.onTick != nil {
		w.onTick(remaining)
	}
	return !locked
}

// Stop signals the watcher to stop.
func (w *LockoutWatcher) Stop() {
	close(w.stopCh)
}
