package authgate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated   = "created"
	outcomeUpdated   = "updated"
	outcomeUnchanged = "unchanged"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "authgate").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	reconciliations   *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	profileWrites     *prometheus.CounterVec
	guardDecisions    *prometheus.CounterVec
}

// NewMetrics registers the collectors on cfg.Registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "authgate"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "profile_reconciliations_total",
			Help:      "Profile reconciliations by outcome",
		}, []string{"outcome"}),

		reconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "profile_reconcile_duration_seconds",
			Help:      "Time spent reconciling a profile against the store",
			Buckets:   prometheus.DefBuckets,
		}),

		profileWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "profile_writes_total",
			Help:      "Profile store writes by operation",
		}, []string{"op"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observeReconcile(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
	if outcome != outcomeSkipped {
		m.reconcileDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) observeWrite(op string) {
	if m == nil {
		return
	}
	m.profileWrites.WithLabelValues(op).Inc()
}

func (m *Metrics) observeDecision(d Decision) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !d.Allowed() {
		outcome = "denied"
	}
	m.guardDecisions.WithLabelValues(outcome).Inc()
}
