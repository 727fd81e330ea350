package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const flushTimeout = 5 * time.Second

// PersistJob is one full-state snapshot to be written remotely. Generation
// identifies the session state it was produced by.
type PersistJob struct {
	Generation uint64
	State      domain.AppState
}

type PersistFunc func(ctx context.Context, job PersistJob)

// PersistWorker serializes the remote writes of one session. It keeps a
// single pending slot: a newer snapshot replaces an unsent older one, and at
// most one write runs at a time.
type PersistWorker struct {
	write  PersistFunc
	logger *zap.Logger

	mu      sync.Mutex
	pending *PersistJob
	busy    bool
	onIdle  func()

	signal chan struct{}
	done   chan struct{}
}

func NewPersistWorker(write PersistFunc, logger *zap.Logger) *PersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistWorker{
		write:  write,
		logger: logger.With(zap.String("component", "persist_worker")),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start runs the worker until ctx is done. A snapshot still pending at that
// point is flushed with a short detached deadline.
func (w *PersistWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.logger.Debug("persist worker started")
		for {
			select {
			case <-w.signal:
				w.drain(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
				w.drain(flushCtx)
				cancel()
				w.logger.Debug("persist worker stopped")
				return
			}
		}
	}()
}

// OnIdle registers fn to run on the worker goroutine whenever it runs out of
// snapshots after at least one write. Call it before Start.
func (w *PersistWorker) OnIdle(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onIdle = fn
}

// Enqueue never blocks the caller.
func (w *PersistWorker) Enqueue(job PersistJob) {
	w.mu.Lock()
	if w.pending != nil {
		w.logger.Debug("superseding unsent snapshot", zap.Uint64("generation", w.pending.Generation))
	}
	w.pending = &job
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Idle reports whether nothing is pending or being written.
func (w *PersistWorker) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending == nil && !w.busy
}

func (w *PersistWorker) Done() <-chan struct{} {
	return w.done
}

// drain writes until nothing is pending. It stops early once ctx is done and
// leaves the pending snapshot to the flush.
func (w *PersistWorker) drain(ctx context.Context) {
	wrote := false
	for ctx.Err() == nil {
		w.mu.Lock()
		job := w.pending
		w.pending = nil
		w.busy = job != nil
		onIdle := w.onIdle
		w.mu.Unlock()

		if job == nil {
			if wrote && onIdle != nil {
				onIdle()
			}
			return
		}

		w.write(ctx, *job)
		wrote = true

		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}
}
