// Package metrics exposes scan and phase counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hakim/surfacerecon/internal/models"
)

// Collector records pipeline outcomes on its own registry.
type Collector struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	phaseItems    *prometheus.CounterVec
	phaseErrors   *prometheus.CounterVec
	scans         *prometheus.CounterVec
	findings      *prometheus.CounterVec
	activeJobs    prometheus.Gauge
}

// New creates a collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "surfacerecon",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each pipeline phase.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		phaseItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfacerecon",
			Name:      "phase_items_total",
			Help:      "Items produced by each pipeline phase.",
		}, []string{"phase"}),
		phaseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfacerecon",
			Name:      "phase_errors_total",
			Help:      "Phases that failed or panicked.",
		}, []string{"phase"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfacerecon",
			Name:      "scans_total",
			Help:      "Finished scans by final status.",
		}, []string{"status"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfacerecon",
			Name:      "findings_total",
			Help:      "Sensitive-data findings by severity.",
		}, []string{"severity"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surfacerecon",
			Name:      "active_jobs",
			Help:      "Scan jobs currently queued or running.",
		}),
	}

	c.registry.MustRegister(
		c.phaseDuration,
		c.phaseItems,
		c.phaseErrors,
		c.scans,
		c.findings,
		c.activeJobs,
		collectors.NewGoCollector(),
	)
	return c
}

// PhaseCompleted records one phase outcome.
func (c *Collector) PhaseCompleted(phase models.Phase, elapsed time.Duration, count int, err error) {
	p := string(phase)
	c.phaseDuration.WithLabelValues(p).Observe(elapsed.Seconds())
	c.phaseItems.WithLabelValues(p).Add(float64(count))
	if err != nil {
		c.phaseErrors.WithLabelValues(p).Inc()
	}
}

// ScanFinished records the final status and findings of a scan.
func (c *Collector) ScanFinished(r *models.ScanReport) {
	c.scans.WithLabelValues(string(r.Status)).Inc()
	for _, f := range r.Findings {
		c.findings.WithLabelValues(string(f.Severity)).Inc()
	}
}

// JobStarted and JobDone track the active job gauge.
func (c *Collector) JobStarted() { c.activeJobs.Inc() }

func (c *Collector) JobDone() { c.activeJobs.Dec() }

// Registry returns the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
