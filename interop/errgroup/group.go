// Package errgroup bridges golang.org/x/sync/errgroup with oneshot result
// delivery. It enables incremental migration: group-structured code can hand
// individual results back to callers without threading extra channels.
package errgroup

import (
	"golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-oneshot/oneshot"
)

// Go runs fn inside g and returns a single-use reader for its result. The
// reader always settles: fn's error is committed before it is reported to
// the group, and the deferred writer release breaks the contract on any
// other exit path.
func Go[T any](g *errgroup.Group, fn func() (T, error)) *oneshot.Reader[T] {
	w, r := oneshot.New[T]()
	g.Go(func() error {
		defer w.Close()
		v, err := fn()
		if err != nil {
			_ = w.Reject(err)
			return err
		}
		_ = w.Resolve(v)
		return nil
	})
	return r
}

// GoShared is Go for results consumed by more than one reader.
func GoShared[T any](g *errgroup.Group, fn func() (T, error)) oneshot.Shared[T] {
	r := Go(g, fn)
	shared, _ := r.Shared()
	return shared
}
