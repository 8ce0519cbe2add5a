package loop

import (
	"context"
	"sync"
)

// Loop is a FIFO callback queue plus a count of in-flight background jobs.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	inflight int
	wake     chan struct{}
}

// New constructs an idle loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run on the loop after already queued callbacks.
func (l *Loop) Post(fn func()) {
	if l == nil || fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on a new goroutine and posts the continuation it returns back
// to the loop. The loop is not idle until the continuation has been queued.
func (l *Loop) Go(ctx context.Context, work func(context.Context) func()) {
	if l == nil || work == nil {
		return
	}
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		next := work(ctx)
		l.mu.Lock()
		if next != nil {
			l.queue = append(l.queue, next)
		}
		l.inflight--
		l.mu.Unlock()
		l.signal()
	}()
}

// Pending reports queued callbacks and in-flight jobs.
func (l *Loop) Pending() (queued, inflight int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue), l.inflight
}

// RunUntilIdle executes callbacks on the calling goroutine until the queue is
// empty and no background job is in flight.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for {
		fn, idle := l.next()
		if fn != nil {
			fn()
			continue
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run executes callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if fn, _ := l.next(); fn != nil {
			fn()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		return fn, false
	}
	return nil, l.inflight == 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
