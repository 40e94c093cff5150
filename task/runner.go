package task

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/NetPo4ki/go-oneshot/oneshot"
)

// Runner bounds how many submitted tasks run at once.
type Runner struct {
	sem *semaphore.Weighted
}

// NewRunner returns a Runner admitting at most n tasks concurrently.
func NewRunner(n int64) *Runner {
	if n <= 0 {
		panic("task: NewRunner with non-positive limit")
	}
	return &Runner{sem: semaphore.NewWeighted(n)}
}

// Submit queues fn on r and hands its eventual outcome back as a single-use
// reader. Acquisition of a slot respects ctx: if ctx is cancelled while
// queued, the reader settles with ctx's error instead of blocking forever.
func Submit[T any](ctx context.Context, r *Runner, fn func(ctx context.Context) (T, error), optFns ...Option) *oneshot.Reader[T] {
	opts := defaultOptions()
	for _, f := range optFns {
		f(&opts)
	}
	w, rd := oneshot.New[T]()
	go func() {
		defer w.Close()
		if err := r.sem.Acquire(ctx, 1); err != nil {
			_ = w.Reject(err)
			return
		}
		defer r.sem.Release(1)
		run(ctx, w, fn, opts)
	}()
	return rd
}
