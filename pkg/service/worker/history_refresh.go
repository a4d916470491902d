package worker

import (
	"context"
	"sync"
	"time"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/usecase"
	"github.com/goldenoak/threadline/pkg/utils/errutil"
	"github.com/goldenoak/threadline/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// HistoryRefreshWorker re-aggregates the full record set on a fixed
// interval and caches the grouped view, so dashboard polls are served from
// memory instead of re-reading the store every time.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type HistoryRefreshWorker struct {
	history  *usecase.HistoryUseCase
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu          sync.RWMutex
	cached      []*model.CustomerGroup
	refreshedAt time.Time
}

// NewHistoryRefreshWorker creates a new worker for refreshing the chat
// history cache
func NewHistoryRefreshWorker(history *usecase.HistoryUseCase, interval time.Duration) *HistoryRefreshWorker {
	return &HistoryRefreshWorker{
		history:  history,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop
// - Initial refresh and periodic refresh both run in a background goroutine
// - Does not block server startup
func (w *HistoryRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("History refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *HistoryRefreshWorker) Stop() {
	logging.Default().Info("History refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("History refresh worker stopped")
}

// Cached returns the cached view with its refresh time. ok is false until
// the first successful refresh or after an invalidation.
func (w *HistoryRefreshWorker) Cached() (groups []*model.CustomerGroup, refreshedAt time.Time, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.refreshedAt.IsZero() {
		return nil, time.Time{}, false
	}
	return w.cached, w.refreshedAt, true
}

// Invalidate drops the cached view. Called after a mutation so the next
// dashboard poll never sees a deleted conversation.
func (w *HistoryRefreshWorker) Invalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cached = nil
	w.refreshedAt = time.Time{}
}

// run is the main worker loop (runs in goroutine)
func (w *HistoryRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.Refresh(ctx); err != nil {
		_ = errutil.Handle(ctx, err, "initial history refresh failed (will retry next interval)")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				// Log error but continue worker
				_ = errutil.Handle(ctx, err, "history refresh failed (will retry next interval)")
			}

		case <-w.stopCh:
			logging.Default().Info("History refresh worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("History refresh worker context cancelled")
			return
		}
	}
}

// Refresh performs a single refresh cycle. The previous cached view is
// preserved when aggregation fails (graceful degradation).
func (w *HistoryRefreshWorker) Refresh(ctx context.Context) error {
	startTime := time.Now()

	groups, err := w.history.ChatHistory(ctx, 0)
	if err != nil {
		return goerr.Wrap(err, "failed to aggregate chat history")
	}

	w.mu.Lock()
	w.cached = groups
	w.refreshedAt = startTime
	w.mu.Unlock()

	logging.Default().Info("History refresh completed",
		"customers", len(groups),
		"duration", time.Since(startTime).String())

	return nil
}
