// Package metrics exposes order lifecycle outcomes as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orders"

// Recorder implements the lifecycle handlers' Recorder and the audit job's
// conflict reporting on top of Prometheus counters.
type Recorder struct {
	saved          *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	stopped        prometheus.Counter
	voided         prometheus.Counter
	unvoided       prometheus.Counter
	auditConflicts prometheus.Counter
	auditRuns      *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		saved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saved_total",
				Help:      "Orders saved through the lifecycle engine, by action.",
			},
			[]string{"action"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_total",
				Help:      "Lifecycle operations rejected, by operation and error kind.",
			},
			[]string{"operation", "kind"},
		),
		stopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stopped_total",
			Help:      "Orders stopped explicitly.",
		}),
		voided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voided_total",
			Help:      "Orders voided.",
		}),
		unvoided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unvoided_total",
			Help:      "Orders unvoided.",
		}),
		auditConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_conflicts_total",
			Help:      "Conflicting active orders found by the audit job.",
		}),
		auditRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_runs_total",
				Help:      "Audit job runs, by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		r.saved, r.rejected, r.stopped, r.voided, r.unvoided, r.auditConflicts, r.auditRuns,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) OrderSaved(action string) {
	r.saved.WithLabelValues(action).Inc()
}

func (r *Recorder) OrderRejected(operation, kind string) {
	r.rejected.WithLabelValues(operation, kind).Inc()
}

func (r *Recorder) OrderStopped() {
	r.stopped.Inc()
}

func (r *Recorder) OrderVoided() {
	r.voided.Inc()
}

func (r *Recorder) OrderUnvoided() {
	r.unvoided.Inc()
}

// AuditCompleted records one audit run and the number of conflicts it found.
func (r *Recorder) AuditCompleted(conflicts int) {
	r.auditRuns.WithLabelValues("ok").Inc()
	r.auditConflicts.Add(float64(conflicts))
}

func (r *Recorder) AuditFailed() {
	r.auditRuns.WithLabelValues("error").Inc()
}
