package oneshot

import (
	"context"
	"time"
)

// Shared is a read-only, copyable view of a channel obtained from
// Reader.Shared. Copies may be handed to any number of independent owners;
// each retrieval blocks until the channel settles and then returns the same
// committed outcome. Retrieval through a Shared view never consumes anything.
//
// The zero Shared is not usable.
type Shared[T any] struct {
	s *state[T]
}

// Get blocks until the channel settles, then returns a copy of the committed
// outcome. Safe to call any number of times from any number of goroutines.
func (sh Shared[T]) Get() (T, error) {
	<-sh.s.settled.Done()
	return sh.s.peek()
}

// GetContext is Get bounded by ctx.
func (sh Shared[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-sh.s.settled.Done():
		return sh.s.peek()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks up to d for the channel to settle without retrieving anything.
func (sh Shared[T]) Wait(d time.Duration) Status {
	return sh.s.waitSettled(d)
}

// Done returns a channel closed when the channel settles.
func (sh Shared[T]) Done() <-chan struct{} {
	return sh.s.settled.Done()
}
