// Package metrics collects and exposes Prometheus metrics for the auth service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for auth operations
const (
	OutcomeSuccess      = "success"
	OutcomeChallenge    = "challenge"
	OutcomeInvalidInput = "invalid_input"
	OutcomeRejected     = "rejected"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// Collector records auth service metrics into a Prometheus registry
type Collector struct {
	authOperations *prometheus.CounterVec
	hashDuration   *prometheus.HistogramVec
	purged         *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_password_hash_duration_seconds",
			Help:    "Time spent hashing or verifying passwords",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		purged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_cleanup_purged_total",
			Help: "Expired records removed by the cleanup manager",
		}, []string{"store"}),
	}

	reg.MustRegister(
		c.authOperations,
		c.hashDuration,
		c.purged,
	)

	return c
}

// RecordAuthOperation counts one auth operation outcome
func (c *Collector) RecordAuthOperation(operation, outcome string) {
	c.authOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records one hash or verify job. It matches pkg/auth.Hasher's observer signature.
func (c *Collector) ObserveHash(op string, d time.Duration) {
	c.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordPurged counts expired records removed from store
func (c *Collector) RecordPurged(store string, count int64) {
	c.purged.WithLabelValues(store).Add(float64(count))
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
