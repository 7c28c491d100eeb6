// Package metrics provides a Prometheus-backed implementation of the
// runtime's Metrics handle. The collector is registered on an explicit
// registry passed by the caller; nothing touches the default registerer
// unless the caller hands it in.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store collects the keel runtime's operational counters.
type Store struct {
	dispatched     *prometheus.CounterVec
	reduceDuration prometheus.Histogram
	queueDepth     prometheus.Gauge
	effectFailures *prometheus.CounterVec
	sinkFailures   prometheus.Counter
	dropped        *prometheus.CounterVec
}

// NewStore builds the collectors and registers them with reg.
func NewStore(reg prometheus.Registerer) *Store {
	m := &Store{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keel_actions_dispatched_total",
			Help: "Actions applied by the dispatch loop, by origin.",
		}, []string{"origin"}),
		reduceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keel_reduce_duration_seconds",
			Help:    "Wall time of reduce calls.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keel_queue_depth",
			Help: "Inbound action queue depth observed at dequeue.",
		}),
		effectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keel_effect_failures_total",
			Help: "Infrastructure failures caught at the engine boundary, by kind.",
		}, []string{"kind"}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keel_sink_failures_total",
			Help: "Failed sink publishes.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keel_actions_dropped_total",
			Help: "Actions dropped instead of applied, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.dispatched, m.reduceDuration, m.queueDepth,
		m.effectFailures, m.sinkFailures, m.dropped)
	return m
}

func (m *Store) ActionDispatched(origin string)   { m.dispatched.WithLabelValues(origin).Inc() }
func (m *Store) ReduceDuration(d time.Duration)   { m.reduceDuration.Observe(d.Seconds()) }
func (m *Store) QueueDepth(n int)                 { m.queueDepth.Set(float64(n)) }
func (m *Store) EffectFailure(kind string)        { m.effectFailures.WithLabelValues(kind).Inc() }
func (m *Store) SinkFailure()                     { m.sinkFailures.Inc() }
func (m *Store) ActionDropped(reason string)      { m.dropped.WithLabelValues(reason).Inc() }
