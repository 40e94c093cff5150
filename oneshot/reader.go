package oneshot

import (
	"context"
	"time"
)

// Status reports the outcome of a timed wait.
type Status int

const (
	TimedOut Status = iota
	Ready
)

// Reader is the single-use retrieval end of a channel. It is a single-owner
// handle and is not safe for concurrent use; convert it with Shared to fan
// the result out to multiple readers.
type Reader[T any] struct {
	s       *state[T]
	invalid bool
}

// Get blocks until the channel settles, then returns the committed outcome.
// A committed value is delivered exactly once: a second Get returns
// ErrAlreadyRetrieved. A committed error is returned on every call.
func (r *Reader[T]) Get() (T, error) {
	if r.invalid {
		var zero T
		return zero, ErrInvalidated
	}
	<-r.s.settled.Done()
	return r.s.take()
}

// GetContext is Get bounded by ctx. On cancellation it returns ctx.Err()
// and leaves the value unconsumed.
func (r *Reader[T]) GetContext(ctx context.Context) (T, error) {
	if r.invalid {
		var zero T
		return zero, ErrInvalidated
	}
	select {
	case <-r.s.settled.Done():
		return r.s.take()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks up to d for the channel to settle. It never consumes the
// value: a later Get still succeeds. Wait(0) polls.
func (r *Reader[T]) Wait(d time.Duration) (Status, error) {
	if r.invalid {
		return TimedOut, ErrInvalidated
	}
	return r.s.waitSettled(d), nil
}

// Done returns a channel closed when the channel settles, for use in select
// statements. A settled channel does not imply the value is still
// retrievable. Done on an invalidated reader returns nil.
func (r *Reader[T]) Done() <-chan struct{} {
	if r.invalid {
		return nil
	}
	return r.s.settled.Done()
}

// Shared converts the reader into a multi-use, copyable view and invalidates
// the receiver: every later operation on it fails with ErrInvalidated,
// including a second Shared call.
func (r *Reader[T]) Shared() (Shared[T], error) {
	if r.invalid {
		return Shared[T]{}, ErrInvalidated
	}
	r.invalid = true
	return Shared[T]{s: r.s}, nil
}
