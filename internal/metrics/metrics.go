// Package metrics exports Prometheus counters for the write path: how many
// statement attempts each form made, how many of them were retries, how long
// the backoffs were, and how each write finally ended.
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vvka-141/intake/pkg/intake"
)

// Collector holds the write-path metrics. Label cardinality is bounded by
// the fixed set of forms.
type Collector struct {
	gatherer prometheus.Gatherer

	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	backoff  prometheus.Histogram
	rejected prometheus.Counter
}

// New registers the metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the metrics on reg and serves them from it.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		gatherer: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_write_attempts_total",
			Help: "Statement submissions, including the first attempt of every write",
		}, []string{"form"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_write_retries_total",
			Help: "Retries scheduled after a retryable failure",
		}, []string{"form"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_write_outcomes_total",
			Help: "Terminal write outcomes by form and result",
		}, []string{"form", "outcome"}),
		backoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_write_backoff_seconds",
			Help:    "Backoff waited before each retry",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intake_cors_rejections_total",
			Help: "Requests refused because their Origin is not allowed",
		}),
	}
	reg.MustRegister(c.attempts, c.retries, c.outcomes, c.backoff, c.rejected)
	return c
}

// ObserveAttempt counts one statement submission for form.
func (c *Collector) ObserveAttempt(form string) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(form).Inc()
}

// ObserveRetry counts a scheduled retry and its backoff.
func (c *Collector) ObserveRetry(form string, delay time.Duration) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(form).Inc()
	c.backoff.Observe(delay.Seconds())
}

// ObserveOutcome counts the terminal outcome of one write.
func (c *Collector) ObserveOutcome(form string, outcome intake.Outcome) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(form, outcome.Kind.String()).Inc()
}

// ObserveRejectedOrigin counts a request refused by the origin check.
func (c *Collector) ObserveRejectedOrigin() {
	if c == nil {
		return
	}
	c.rejected.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
