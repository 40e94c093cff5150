// Package otel provides an OpenTelemetry observer plugin for the task library.
// It emits span events (start, cancel, finish, error, panic) with low overhead.
package otel
