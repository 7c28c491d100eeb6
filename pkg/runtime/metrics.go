package runtime

import "time"

// Metrics is the observability handle the store reports operational counters
// through. A noop implementation is substituted when none is configured;
// pkg/metrics provides a Prometheus-backed one.
type Metrics interface {
	// ActionDispatched counts one applied action by origin.
	ActionDispatched(origin string)
	// ReduceDuration records the wall time of one reduce call.
	ReduceDuration(d time.Duration)
	// QueueDepth records the inbound queue depth observed at dequeue.
	QueueDepth(n int)
	// EffectFailure counts one infrastructure failure by kind.
	EffectFailure(kind string)
	// SinkFailure counts one failed sink publish.
	SinkFailure()
	// ActionDropped counts one action dropped instead of applied.
	ActionDropped(reason string)
}

type nopMetrics struct{}

func (nopMetrics) ActionDispatched(string)      {}
func (nopMetrics) ReduceDuration(time.Duration) {}
func (nopMetrics) QueueDepth(int)               {}
func (nopMetrics) EffectFailure(string)         {}
func (nopMetrics) SinkFailure()                 {}
func (nopMetrics) ActionDropped(string)         {}
