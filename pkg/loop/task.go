package loop

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is the single completion point of an asynchronous operation. Callbacks
// registered with Then run on the owning loop, exactly once each, after the
// task resolves.
type Task[T any] struct {
	loop *Loop

	mu        sync.Mutex
	done      bool
	value     T
	err       error
	callbacks []func(T, error)
	finished  chan struct{}
}

// Start runs fn in the background and resolves the task with its result on l.
func Start[T any](l *Loop, ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	task := &Task[T]{loop: l, finished: make(chan struct{})}
	l.Go(ctx, func(ctx context.Context) func() {
		value, err := fn(ctx)
		return func() { task.resolve(value, err) }
	})
	return task
}

// Resolved returns a task already completed with value and err. Callbacks
// still run asynchronously on the loop.
func Resolved[T any](l *Loop, value T, err error) *Task[T] {
	task := &Task[T]{loop: l, finished: make(chan struct{})}
	task.resolve(value, err)
	return task
}

// Then registers fn to receive the task result on the loop.
func (t *Task[T]) Then(fn func(T, error)) {
	if t == nil || fn == nil {
		return
	}
	t.mu.Lock()
	if !t.done {
		t.callbacks = append(t.callbacks, fn)
		t.mu.Unlock()
		return
	}
	value, err := t.value, t.err
	t.mu.Unlock()
	t.loop.Post(func() { fn(value, err) })
}

// Done reports whether the task has resolved.
func (t *Task[T]) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Wait blocks until the task resolves. It must not be called from a loop
// callback: the loop goroutine is the one that resolves tasks.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-t.finished:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.value, t.err
	}
}

func (t *Task[T]) resolve(value T, err error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.value = value
	t.err = err
	callbacks := t.callbacks
	t.callbacks = nil
	close(t.finished)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn := fn
		t.loop.Post(func() { fn(value, err) })
	}
}

// Token marks a pending result as superseded. The zero value is live.
type Token struct {
	cancelled atomic.Bool
}

// NewToken returns a live token.
func NewToken() *Token {
	return &Token{}
}

// Cancel marks the token stale. Safe to call on a nil token.
func (t *Token) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

// Cancelled reports whether results guarded by the token should be dropped.
func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
