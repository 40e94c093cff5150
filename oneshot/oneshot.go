package oneshot

import (
	"runtime"
	"sync"
	"time"

	"github.com/anacrolix/chansync"
)

// state is the channel state shared between the writer and all reader
// handles. The settled event gives waiters a selectable channel and the
// broadcast wakeup; the mutex orders commits against retrievals.
type state[T any] struct {
	mu        sync.Mutex
	settled   chansync.SetOnce
	val       T
	err       error
	retrieved bool
}

func (s *state[T]) commit(v T, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled.IsSet() {
		return ErrAlreadyCommitted
	}
	s.val = v
	s.err = err
	s.settled.Set()
	return nil
}

// abandon settles the channel with ErrBrokenContract unless an outcome was
// already committed. Called from Writer.Close and from the writer's GC
// cleanup, so it must tolerate both.
func (s *state[T]) abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled.IsSet() {
		return
	}
	s.err = ErrBrokenContract
	s.settled.Set()
}

// take consumes the committed value for the single-use reader. A committed
// error is repeatable; a committed value is delivered exactly once.
func (s *state[T]) take() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.err != nil {
		return zero, s.err
	}
	if s.retrieved {
		return zero, ErrAlreadyRetrieved
	}
	s.retrieved = true
	return s.val, nil
}

// peek reads the committed outcome without consuming it.
func (s *state[T]) peek() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		var zero T
		return zero, s.err
	}
	return s.val, nil
}

func (s *state[T]) waitSettled(d time.Duration) Status {
	if s.settled.IsSet() {
		return Ready
	}
	if d <= 0 {
		return TimedOut
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.settled.Done():
		return Ready
	case <-t.C:
		return TimedOut
	}
}

// Writer is the unique handle authorized to commit the channel's one outcome.
// It must not be copied or shared between owners; exactly one commit is
// permitted per channel.
type Writer[T any] struct {
	s *state[T]
}

// New allocates a channel and returns its writer and single-use reader ends.
//
// A cleanup attached to the writer breaks the contract if the writer becomes
// unreachable while the channel is unsettled. This is a best-effort backstop;
// callers should still defer Close rather than rely on collection timing.
func New[T any]() (*Writer[T], *Reader[T]) {
	s := &state[T]{}
	w := &Writer[T]{s: s}
	runtime.AddCleanup(w, (*state[T]).abandon, s)
	return w, &Reader[T]{s: s}
}

// Resolve commits v as the channel's value and wakes every blocked reader.
// It returns ErrAlreadyCommitted if an outcome was committed before; under
// concurrent commit attempts exactly one caller wins.
func (w *Writer[T]) Resolve(v T) error {
	err := w.s.commit(v, nil)
	// Keeps the writer reachable until the commit lands, so the cleanup
	// cannot race it with a spurious broken contract.
	runtime.KeepAlive(w)
	return err
}

// Reject commits cause as the channel's error outcome. Every retrieval on
// this channel will return cause. Rejecting with a nil cause is a caller bug.
func (w *Writer[T]) Reject(cause error) error {
	if cause == nil {
		panic("oneshot: Reject with nil error")
	}
	var zero T
	err := w.s.commit(zero, cause)
	runtime.KeepAlive(w)
	return err
}

// Close releases the writer. If nothing was committed the channel settles
// with ErrBrokenContract, exactly once. Close after a commit is a no-op, so
// it is safe to defer unconditionally.
func (w *Writer[T]) Close() {
	w.s.abandon()
	runtime.KeepAlive(w)
}
