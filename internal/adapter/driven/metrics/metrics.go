// Package metrics implements the MetricsRecorder port with Prometheus
// collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "contribtracker"

// Recorder records ingestion metrics on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	issues        *prometheus.CounterVec
	contributions *prometheus.CounterVec
	notifications *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors
// registered alongside the ingestion metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_stored_total",
			Help:      "Issues stored, by source.",
		}, []string{"source"}),
		contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributions_stored_total",
			Help:      "Code contributions stored, by source.",
		}, []string{"source"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications attempted, by source and result.",
		}, []string{"source", "result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_runs_total",
			Help:      "User ingestion runs, by source and outcome.",
		}, []string{"source", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "user_run_duration_seconds",
			Help:      "Duration of user ingestion runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"source"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.issues,
		r.contributions,
		r.notifications,
		r.runs,
		r.runDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) IssueStored(source string) {
	r.issues.WithLabelValues(source).Inc()
}

func (r *Recorder) ContributionStored(source string) {
	r.contributions.WithLabelValues(source).Inc()
}

func (r *Recorder) NotificationSent(source string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	r.notifications.WithLabelValues(source, result).Inc()
}

func (r *Recorder) RunFinished(source, outcome string, elapsed time.Duration) {
	r.runs.WithLabelValues(source, outcome).Inc()
	r.runDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
