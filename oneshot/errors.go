package oneshot

import "errors"

var (
	// ErrBrokenContract is the outcome synthesized when a writer is released,
	// explicitly via Close or by the garbage collector, before committing.
	ErrBrokenContract = errors.New("oneshot: writer released without committing")

	// ErrAlreadyCommitted is returned by Resolve and Reject once the channel
	// has been settled.
	ErrAlreadyCommitted = errors.New("oneshot: already committed")

	// ErrAlreadyRetrieved is returned by a single-use Reader whose value has
	// already been consumed.
	ErrAlreadyRetrieved = errors.New("oneshot: value already retrieved")

	// ErrInvalidated is returned by a Reader that has been converted to a
	// Shared view.
	ErrInvalidated = errors.New("oneshot: reader invalidated by Shared conversion")
)
