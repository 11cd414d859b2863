// Package metrics exposes Prometheus metrics for the rule engine and
// serves them over HTTP in daemon mode.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waveform-hq/archivist/pkg/config"
	"waveform-hq/archivist/pkg/rules"
)

// Collector registers and records the engine metrics. It implements
// rules.Observer so the engine reports into it directly. A disabled
// collector records nothing.
type Collector struct {
	cfg      config.MetricsConfig
	registry *prometheus.Registry

	runsTotal        prometheus.Counter
	itemsTotal       prometheus.Counter
	evaluationsTotal *prometheus.CounterVec
	ruleDuration     *prometheus.HistogramVec
	remoteRequests   *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics. A nil
// registry gets a fresh one.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "archivist"
	}
	if len(cfg.RuleDurationBuckets) == 0 {
		cfg.RuleDurationBuckets = []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300}
	}

	c := &Collector{
		cfg:      cfg,
		registry: registry,

		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "runs_total",
			Help:      "Total number of completed archive runs",
		}),

		itemsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "items_processed_total",
			Help:      "Total number of archive files processed",
		}),

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "rule_evaluations_total",
			Help:      "Total rule evaluations by rule and outcome",
		}, []string{"rule", "outcome"}),

		ruleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "rule_duration_seconds",
			Help:      "Duration of rule evaluation including the action",
			Buckets:   cfg.RuleDurationBuckets,
		}, []string{"rule"}),

		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "remote_requests_total",
			Help:      "Total requests to external services by service and status",
		}, []string{"service", "status"}),
	}

	registry.MustRegister(
		c.runsTotal,
		c.itemsTotal,
		c.evaluationsTotal,
		c.ruleDuration,
		c.remoteRequests,
	)
	return c
}

// RuleEvaluated implements rules.Observer.
func (c *Collector) RuleEvaluated(rule string, outcome rules.Outcome, duration time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	c.evaluationsTotal.WithLabelValues(rule, string(outcome)).Inc()
	c.ruleDuration.WithLabelValues(rule).Observe(duration.Seconds())
}

// ItemProcessed implements rules.Observer.
func (c *Collector) ItemProcessed() {
	if !c.cfg.Enabled {
		return
	}
	c.itemsTotal.Inc()
}

// RunCompleted counts a finished run.
func (c *Collector) RunCompleted() {
	if !c.cfg.Enabled {
		return
	}
	c.runsTotal.Inc()
}

// RemoteRequest counts a request to an external service.
func (c *Collector) RemoteRequest(service, status string) {
	if !c.cfg.Enabled {
		return
	}
	c.remoteRequests.WithLabelValues(service, status).Inc()
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the configured listen address until the
// context is cancelled. It returns immediately when metrics are
// disabled or no address is configured.
func (c *Collector) Serve(ctx context.Context) error {
	if !c.cfg.Enabled || c.cfg.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{Addr: c.cfg.ListenAddress, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
