// Package prom exports task lifecycle metrics through the Prometheus client.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-oneshot/task"
)

// Observer implements task.Observer on top of Prometheus collectors.
type Observer struct {
	started   prometheus.Counter
	finished  prometheus.Counter
	errored   prometheus.Counter
	panicked  prometheus.Counter
	cancelled prometheus.Counter
	active    prometheus.Gauge
	duration  prometheus.Histogram
}

var _ task.Observer = (*Observer)(nil)

// New builds an Observer and registers its collectors with reg.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "started_total",
			Help: "Tasks started.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "finished_total",
			Help: "Tasks finished, regardless of outcome.",
		}),
		errored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "errored_total",
			Help: "Tasks that finished with a non-nil error.",
		}),
		panicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "panicked_total",
			Help: "Tasks whose body panicked.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "cancelled_total",
			Help: "Cancellation requests delivered to tasks.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "active",
			Help: "Tasks currently running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "tasks", Name: "duration_seconds",
			Help:    "Task body duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{
		o.started, o.finished, o.errored, o.panicked, o.cancelled, o.active, o.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) TaskStarted(_ context.Context) {
	o.started.Inc()
	o.active.Inc()
}

func (o *Observer) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	o.active.Dec()
	o.finished.Inc()
	if err != nil {
		o.errored.Inc()
	}
	if panicked {
		o.panicked.Inc()
	}
	o.duration.Observe(dur.Seconds())
}

func (o *Observer) TaskCancelled(_ context.Context) {
	o.cancelled.Inc()
}
