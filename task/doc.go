// Package task provides auto-joining, cooperatively-cancellable task handles
// on top of oneshot result channels. A Handle owns the goroutine it spawned,
// delivers its result through a shared oneshot view, and joins it
// deterministically via Wait or Stop. Cancellation is cooperative: the task
// body observes it through its context.
package task
