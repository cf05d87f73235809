// Package metrics exposes prometheus instruments for analysis runs and
// HTTP sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/sightline/pkg/reconcile"
)

// Metrics provides observability for analysis runs.
// Tracks run counts, per-source failures, run latency and view sizes.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	SourceFailures     prometheus.Counter
	RunDuration        prometheus.Histogram
	Machines           prometheus.Gauge
	DisappearedTotal   prometheus.Gauge
	ActiveSessions     prometheus.Gauge
	GuessRequestsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sightline_runs_total",
			Help: "Total number of analysis runs by outcome",
		}, []string{"outcome"}),
		SourceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sightline_source_failures_total",
			Help: "Total number of sources that failed to normalize",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sightline_run_duration_seconds",
			Help:    "Duration of analysis runs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Machines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sightline_last_run_machines",
			Help: "Machines in the consolidated view of the last run",
		}),
		DisappearedTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sightline_last_run_disappeared",
			Help: "Disappeared machines in the last run",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sightline_active_sessions",
			Help: "Open HTTP analysis sessions",
		}),
		GuessRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sightline_guess_requests_total",
			Help: "Total number of date format guesses by outcome",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry the instruments are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun implements reconcile.Observer.
func (m *Metrics) ObserveRun(result *reconcile.Result) {
	if m == nil || result == nil {
		return
	}
	outcome := "ok"
	failed := len(result.Errors())
	switch {
	case len(result.SourceFiles) == 0:
		outcome = "empty"
	case failed > 0:
		outcome = "partial"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.SourceFailures.Add(float64(failed))
	m.RunDuration.Observe(result.Duration.Seconds())
	m.Machines.Set(float64(len(result.Machines)))
	m.DisappearedTotal.Set(float64(result.DisappearedCount))
}

// RecordRunError counts a run that returned an error.
func (m *Metrics) RecordRunError() {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues("error").Inc()
}

// ObserveGuess counts a guess request by whether a format was found.
func (m *Metrics) ObserveGuess(found bool) {
	if m == nil {
		return
	}
	outcome := "none"
	if found {
		outcome = "found"
	}
	m.GuessRequestsTotal.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveDuration records a duration since start on the run histogram.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDuration(start time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(time.Since(start).Seconds())
}
