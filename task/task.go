package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NetPo4ki/go-oneshot/oneshot"
)

type Option func(*Options)

type Options struct {
	PanicAsError bool
	Observer     Observer
}

func defaultOptions() Options { return Options{PanicAsError: true} }

// WithPanicAsError controls whether a panicking task body is recovered and
// surfaced as an error outcome (the default) or allowed to crash.
func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

// WithObserver attaches lifecycle hooks to the task.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// Observer receives task lifecycle events. Implementations must be safe for
// concurrent use.
type Observer interface {
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
	TaskCancelled(ctx context.Context)
}

// Handle owns one background task. The task's outcome is delivered through a
// shared oneshot view, so Wait may be called repeatedly and from multiple
// goroutines, always returning the same result.
type Handle[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	result oneshot.Shared[T]
	joined chan struct{}
	opts   Options

	mu        sync.Mutex
	cancelled bool
}

// Go spawns fn on its own goroutine with a context derived from parent and
// returns the handle that owns it.
func Go[T any](parent context.Context, fn func(ctx context.Context) (T, error), optFns ...Option) *Handle[T] {
	if parent == nil {
		parent = context.Background()
	}
	opts := defaultOptions()
	for _, f := range optFns {
		f(&opts)
	}
	ctx, cancel := context.WithCancel(parent)
	w, r := oneshot.New[T]()
	shared, _ := r.Shared()
	h := &Handle[T]{ctx: ctx, cancel: cancel, result: shared, joined: make(chan struct{}), opts: opts}
	go func() {
		defer close(h.joined)
		defer cancel()
		run(ctx, w, fn, opts)
	}()
	return h
}

// run executes one task body and guarantees the writer settles: a normal
// return commits the outcome, a rethrown panic leaves the deferred Close to
// break the contract so waiters never hang.
func run[T any](ctx context.Context, w *oneshot.Writer[T], fn func(ctx context.Context) (T, error), opts Options) {
	defer w.Close()

	var start time.Time
	if opts.Observer != nil {
		start = time.Now()
		opts.Observer.TaskStarted(ctx)
	}
	defer func() {
		if r := recover(); r != nil {
			if opts.PanicAsError {
				err := fmt.Errorf("panic: %v", r)
				if opts.Observer != nil {
					opts.Observer.TaskFinished(ctx, 0, err, true)
				}
				_ = w.Reject(err)
			} else {
				if opts.Observer != nil {
					opts.Observer.TaskFinished(ctx, 0, nil, true)
				}
				panic(r)
			}
		}
	}()

	v, err := fn(ctx)
	// Observers are notified before the outcome settles, so that anyone who
	// joined through Wait observes lifecycle counters consistent with the
	// result they received.
	if opts.Observer != nil {
		opts.Observer.TaskFinished(ctx, time.Since(start), err, false)
	}
	if err != nil {
		_ = w.Reject(err)
	} else {
		_ = w.Resolve(v)
	}
}

// Context returns the task's context.
func (h *Handle[T]) Context() context.Context { return h.ctx }

// Cancel requests cooperative cancellation. The task body decides when to
// observe it; Cancel never interrupts it preemptively. Idempotent.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	wasCancelled := h.cancelled
	h.cancelled = true
	h.mu.Unlock()

	h.cancel()
	if !wasCancelled && h.opts.Observer != nil {
		h.opts.Observer.TaskCancelled(h.ctx)
	}
}

// Wait joins the task and returns its outcome. It does not return until the
// task's goroutine has exited. Safe to call repeatedly; every call returns
// the same result.
func (h *Handle[T]) Wait() (T, error) {
	<-h.joined
	return h.result.Get()
}

// Stop cancels the task and joins it. This is the deterministic teardown
// path: after Stop returns the task's goroutine has finished.
func (h *Handle[T]) Stop() (T, error) {
	h.Cancel()
	return h.Wait()
}

// Done returns a channel closed once the task's outcome is available.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.result.Done()
}

// Result exposes the task's result end for fan-out to other consumers.
func (h *Handle[T]) Result() oneshot.Shared[T] {
	return h.result
}
