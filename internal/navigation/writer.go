package navigation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/storage"
)

type saveJob struct {
	ctx      context.Context
	snapshot *state.NavigationState
	waiters  []chan error
}

// writer serializes snapshot writes to a provider on one background
// goroutine. Only the newest pending snapshot is written: callers waiting on
// a superseded snapshot receive the result of the write that replaced it.
type writer struct {
	store  storage.Provider
	logger *slog.Logger

	mu      sync.Mutex
	pending *saveJob
	idle    chan struct{} // non-nil while run is active; closed when it exits
}

func newWriter(store storage.Provider, logger *slog.Logger) *writer {
	return &writer{store: store, logger: logger}
}

// submit queues s and returns a channel that receives the write result and
// is then closed.
func (w *writer) submit(ctx context.Context, s *state.NavigationState) <-chan error {
	ch := make(chan error, 1)
	w.enqueue(ctx, s, ch)
	return ch
}

// enqueue queues s. Failures without a waiter are logged.
func (w *writer) enqueue(ctx context.Context, s *state.NavigationState, done chan error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = &saveJob{}
	}
	w.pending.ctx = ctx
	w.pending.snapshot = s
	if done != nil {
		w.pending.waiters = append(w.pending.waiters, done)
	}
	if w.idle == nil {
		w.idle = make(chan struct{})
		go w.run()
	}
}

func (w *writer) run() {
	for {
		w.mu.Lock()
		job := w.pending
		w.pending = nil
		if job == nil {
			close(w.idle)
			w.idle = nil
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		err := w.store.Save(job.ctx, job.snapshot)
		if err != nil && len(job.waiters) == 0 {
			w.logger.Error("autosave failed", slog.String("error", err.Error()))
		}
		for _, ch := range job.waiters {
			ch <- err
			close(ch)
		}
	}
}

// flush blocks until every queued snapshot has been written.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
