// Package metrics provides Prometheus metrics instrumentation for the operator.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
type Collector interface {
	// Reconciliation metrics
	RecordReconcileDuration(ctx context.Context, status string, duration time.Duration)
	RecordReconcileError(ctx context.Context, errorType string)
	RecordWatchEvent(ctx context.Context, eventType string)
	RecordEndpoints(ctx context.Context, count int)
	RecordIngresses(ctx context.Context, count int)

	// Document builder metrics
	RecordBuildDuration(ctx context.Context, duration time.Duration)

	// Helm metrics
	RecordHelmOperation(ctx context.Context, operation, status string, duration time.Duration)
	RecordHelmError(ctx context.Context, operation, errorType string)
	RecordHelmChartInfo(ctx context.Context, chart, version, appVersion string)
}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	// Reconciliation metrics
	reconcileDuration    *prometheus.HistogramVec
	reconcileErrorsTotal *prometheus.CounterVec
	watchEventsTotal     *prometheus.CounterVec
	endpointsTotal       prometheus.Gauge
	ingressesTotal       prometheus.Gauge

	// Document builder metrics
	buildDuration prometheus.Histogram

	// Helm metrics
	helmDuration    *prometheus.HistogramVec
	helmOpsTotal    *prometheus.CounterVec
	helmErrorsTotal *prometheus.CounterVec
	helmChartInfo   *prometheus.GaugeVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{}
	c.initReconcileMetrics()
	c.initBuildMetrics()
	c.initHelmMetrics()
	c.register(reg)

	return c
}

// RecordReconcileDuration records the duration of one reconciliation cycle.
func (c *prometheusCollector) RecordReconcileDuration(_ context.Context, status string, duration time.Duration) {
	c.reconcileDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordReconcileError records a reconciliation error by type.
func (c *prometheusCollector) RecordReconcileError(_ context.Context, errorType string) {
	c.reconcileErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordWatchEvent records an Ingress watch event by type.
func (c *prometheusCollector) RecordWatchEvent(_ context.Context, eventType string) {
	c.watchEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordEndpoints records the number of monitored endpoints in the current document.
func (c *prometheusCollector) RecordEndpoints(_ context.Context, count int) {
	c.endpointsTotal.Set(float64(count))
}

// RecordIngresses records the number of Ingress objects seen in the last relist.
func (c *prometheusCollector) RecordIngresses(_ context.Context, count int) {
	c.ingressesTotal.Set(float64(count))
}

// RecordBuildDuration records the duration of document building.
func (c *prometheusCollector) RecordBuildDuration(_ context.Context, duration time.Duration) {
	c.buildDuration.Observe(duration.Seconds())
}

// RecordHelmOperation records a Helm operation.
func (c *prometheusCollector) RecordHelmOperation(
	_ context.Context,
	operation, status string,
	duration time.Duration,
) {
	c.helmDuration.WithLabelValues(operation).Observe(duration.Seconds())
	c.helmOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordHelmError records a Helm error.
func (c *prometheusCollector) RecordHelmError(_ context.Context, operation, errorType string) {
	c.helmErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordHelmChartInfo records the deployed Helm chart version info.
func (c *prometheusCollector) RecordHelmChartInfo(_ context.Context, chart, version, appVersion string) {
	c.helmChartInfo.WithLabelValues(chart, version, appVersion).Set(1)
}

func (c *prometheusCollector) initReconcileMetrics() {
	c.reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatus_operator_reconcile_duration_seconds",
			Help:    "Duration of reconciliation cycles",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)
	c.reconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatus_operator_reconcile_errors_total",
			Help: "Total reconciliation errors by type",
		},
		[]string{"error_type"},
	)
	c.watchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatus_operator_watch_events_total",
			Help: "Total Ingress watch events by type",
		},
		[]string{"event_type"},
	)
	c.endpointsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatus_operator_endpoints",
			Help: "Number of monitored endpoints in the current configuration",
		},
	)
	c.ingressesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatus_operator_ingresses",
			Help: "Number of Ingress objects seen in the last relist",
		},
	)
}

func (c *prometheusCollector) initBuildMetrics() {
	c.buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gatus_operator_build_duration_seconds",
			Help:    "Duration of configuration document building",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)
}

func (c *prometheusCollector) initHelmMetrics() {
	c.helmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatus_operator_helm_operation_duration_seconds",
			Help:    "Duration of Helm operations",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
	c.helmOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatus_operator_helm_operations_total",
			Help: "Total Helm operations",
		},
		[]string{"operation", "status"},
	)
	c.helmErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatus_operator_helm_errors_total",
			Help: "Total Helm errors by type",
		},
		[]string{"operation", "error_type"},
	)
	c.helmChartInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gatus_operator_helm_chart_info",
			Help: "Deployed Helm chart version info (always 1)",
		},
		[]string{"chart", "version", "app_version"},
	)
}

func (c *prometheusCollector) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.reconcileDuration,
		c.reconcileErrorsTotal,
		c.watchEventsTotal,
		c.endpointsTotal,
		c.ingressesTotal,
		c.buildDuration,
		c.helmDuration,
		c.helmOpsTotal,
		c.helmErrorsTotal,
		c.helmChartInfo,
	)
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordReconcileDuration is a no-op.
func (c *NoopCollector) RecordReconcileDuration(_ context.Context, _ string, _ time.Duration) {}

// RecordReconcileError is a no-op.
func (c *NoopCollector) RecordReconcileError(_ context.Context, _ string) {}

// RecordWatchEvent is a no-op.
func (c *NoopCollector) RecordWatchEvent(_ context.Context, _ string) {}

// RecordEndpoints is a no-op.
func (c *NoopCollector) RecordEndpoints(_ context.Context, _ int) {}

// RecordIngresses is a no-op.
func (c *NoopCollector) RecordIngresses(_ context.Context, _ int) {}

// RecordBuildDuration is a no-op.
func (c *NoopCollector) RecordBuildDuration(_ context.Context, _ time.Duration) {}

// RecordHelmOperation is a no-op.
func (c *NoopCollector) RecordHelmOperation(_ context.Context, _, _ string, _ time.Duration) {}

// RecordHelmError is a no-op.
func (c *NoopCollector) RecordHelmError(_ context.Context, _, _ string) {}

// RecordHelmChartInfo is a no-op.
func (c *NoopCollector) RecordHelmChartInfo(_ context.Context, _, _, _ string) {}
