package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parley"

// Recorder owns the collectors for one registry. A nil Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	checks      *prometheus.CounterVec
	fumbles     *prometheus.CounterVec
	margins     *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	deltas      *prometheus.CounterVec
}

// NewRecorder registers collectors on a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Resolved checks by subsystem and outcome tier.",
		}, []string{"subsystem", "tier"}),
		fumbles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fumbles_total",
			Help:      "Fumbled checks by subsystem.",
		}, []string{"subsystem"}),
		margins: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_margin",
			Help:      "Total minus required successes per resolved check.",
			Buckets:   prometheus.LinearBuckets(-5, 1, 11),
		}, []string{"subsystem"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contest_transitions_total",
			Help:      "Contest status changes by subsystem and new status.",
		}, []string{"subsystem", "status"}),
		deltas: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_deltas_total",
			Help:      "Deltas emitted to the ledger by kind.",
		}, []string{"kind"}),
	}
}

// Registry exposes the gatherer for export.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveCheck records one resolved check.
func (r *Recorder) ObserveCheck(subsystem, tier string, margin int, fumble bool) {
	if r == nil {
		return
	}
	r.checks.WithLabelValues(subsystem, tier).Inc()
	r.margins.WithLabelValues(subsystem).Observe(float64(margin))
	if fumble {
		r.fumbles.WithLabelValues(subsystem).Inc()
	}
}

// ObserveTransition records a contest entering a new status.
func (r *Recorder) ObserveTransition(subsystem, status string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(subsystem, status).Inc()
}

// ObserveDelta records one ledger delta.
func (r *Recorder) ObserveDelta(kind string) {
	if r == nil {
		return
	}
	r.deltas.WithLabelValues(kind).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
