// Package oneshot provides a single-assignment result channel: a one-shot
// value-or-error handoff between exactly one writer and one or more readers.
// A Writer commits the outcome at most once, a Reader retrieves it at most
// once, and a Shared view fans the same outcome out to any number of readers.
// A writer released without committing settles the channel with
// ErrBrokenContract so that no reader blocks forever.
package oneshot
