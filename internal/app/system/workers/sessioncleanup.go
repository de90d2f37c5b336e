// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
)

// retentionPeriod is how long closed session records are kept before
// the sweep purges them. Open sessions are never purged.
const retentionPeriod = 90 * 24 * time.Hour

// sweepTimeout bounds a single sweep against a slow database.
const sweepTimeout = 30 * time.Second

// SessionCleanup periodically closes participant and expert sessions
// that went quiet, and purges closed session records past the
// retention period so the activity collection stays bounded.
type SessionCleanup struct {
	sessions          *sessions.Store
	log               *zap.Logger
	interval          time.Duration
	inactiveThreshold time.Duration
	stopCh            chan struct{}
	wg                sync.WaitGroup
}

// NewSessionCleanup creates the cleanup worker. interval is how often
// a sweep runs; inactiveThreshold is how long a session may be idle
// before it is closed with the "inactive" end reason.
func NewSessionCleanup(sessStore *sessions.Store, logger *zap.Logger, interval, inactiveThreshold time.Duration) *SessionCleanup {
	return &SessionCleanup{
		sessions:          sessStore,
		log:               logger,
		interval:          interval,
		inactiveThreshold: inactiveThreshold,
		stopCh:            make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately so a
// restarted server does not leave stale sessions open for a full
// interval.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup started",
		zap.Duration("interval", w.interval),
		zap.Duration("inactive_threshold", w.inactiveThreshold),
		zap.Duration("retention", retentionPeriod))
}

// Stop signals the worker to stop and waits for an in-flight sweep to
// finish.
func (w *SessionCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("session cleanup stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one cleanup pass: close idle sessions, then purge closed
// records older than the retention period.
func (w *SessionCleanup) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	closed, err := w.sessions.CloseInactive(ctx, w.inactiveThreshold)
	if err != nil {
		w.log.Error("closing idle sessions failed", zap.Error(err))
		return
	}

	purged, err := w.sessions.PurgeClosedBefore(ctx, time.Now().UTC().Add(-retentionPeriod))
	if err != nil {
		w.log.Error("purging expired session records failed", zap.Error(err))
		return
	}

	if closed > 0 || purged > 0 {
		w.log.Info("session sweep finished",
			zap.Int64("closed_idle", closed),
			zap.Int64("purged_records", purged))
	}
}
