// Package loop provides the application's main sequence: a single goroutine
// that runs posted tasks one at a time, in order.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when posting to a loop that is no longer running.
var ErrStopped = errors.New("loop stopped")

// Loop executes posted tasks sequentially on one goroutine.
type Loop struct {
	tasks    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a loop with room for queued tasks. Call Run to start it.
func New(queue int) *Loop {
	return &Loop{
		tasks: make(chan func(), queue),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Stop is called. Tasks still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.stop:
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn to run on the loop. It reports false if the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// Run may have picked fn up before stopping.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}
