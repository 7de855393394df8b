package client

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Loop runs queued callbacks one at a time on a single goroutine.
//
// Do must not be called from a callback already running on the loop: the
// callback would wait for itself.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	closed     atomic.Bool
	running    atomic.Bool
	logger     *slog.Logger
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		dispatchCh: make(chan func(), size),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	if !l.running.CompareAndSwap(false, true) {
		l.logger.Warn("loop already running")
		return
	}
	go l.run()
}

// Run executes callbacks on the calling goroutine until Close is called.
func (l *Loop) Run() {
	if !l.running.CompareAndSwap(false, true) {
		l.logger.Warn("loop already running")
		return
	}
	l.run()
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-l.done:
			return
		}
	}
}

// execute runs fn with panic recovery.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Dispatch queues fn to run on the loop and returns without waiting.
// It blocks while the queue is full. It reports false if the loop is closed,
// in which case fn is discarded.
func (l *Loop) Dispatch(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.dispatchCh <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if !l.running.Load() {
		return ErrNotStarted
	}
	finished := make(chan struct{})
	queued := l.Dispatch(func() {
		defer close(finished)
		fn()
	})
	if !queued {
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have been picked up just before close.
		select {
		case <-finished:
			return nil
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Callbacks still queued are discarded. A callback
// already running finishes; use Wait to block until it has.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when Close is called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until Run has returned.
func (l *Loop) Wait() {
	if !l.running.Load() {
		return
	}
	<-l.stopped
}
