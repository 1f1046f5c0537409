package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Telemetry bundles the meter provider and the instruments the
// application records on. Metrics are exported in Prometheus format on
// the /metrics endpoint.
type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *Metrics
	logger        *slog.Logger
}

// Metrics holds the application instruments.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	PipelineRunsTotal    metric.Int64Counter
	PipelineRunDuration  metric.Float64Histogram
	RowsProcessedTotal   metric.Int64Counter
	RowsSkippedTotal     metric.Int64Counter
	MonthlyPointsCurrent metric.Int64Gauge

	DatasetReloadsTotal metric.Int64Counter
}

// InitializeTelemetry sets up the OpenTelemetry meter provider with a
// Prometheus exporter and registers the application instruments.
func InitializeTelemetry(serviceName, serviceVersion string, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	metrics, err := createMetrics(provider.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	logger.Info("telemetry initialized",
		slog.String("service", serviceName),
		slog.String("exporter", "prometheus"),
	)

	return &Telemetry{
		MeterProvider: provider,
		Metrics:       metrics,
		logger:        logger,
	}, nil
}

// MetricsHandler returns the HTTP handler serving the Prometheus
// scrape endpoint.
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.MeterProvider == nil {
		return nil
	}
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}

func createMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.PipelineRunsTotal, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of processing pipeline runs"),
	); err != nil {
		return nil, err
	}

	if m.PipelineRunDuration, err = meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Processing pipeline run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RowsProcessedTotal, err = meter.Int64Counter(
		"pipeline_rows_processed_total",
		metric.WithDescription("Total result rows read by the pipeline"),
	); err != nil {
		return nil, err
	}

	if m.RowsSkippedTotal, err = meter.Int64Counter(
		"pipeline_rows_skipped_total",
		metric.WithDescription("Result rows skipped, labelled by reason"),
	); err != nil {
		return nil, err
	}

	if m.MonthlyPointsCurrent, err = meter.Int64Gauge(
		"dataset_monthly_points",
		metric.WithDescription("Monthly points in the currently loaded dataset"),
	); err != nil {
		return nil, err
	}

	if m.DatasetReloadsTotal, err = meter.Int64Counter(
		"dataset_reloads_total",
		metric.WithDescription("Dataset reloads, labelled by trigger"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, seconds, attrs)
}

// RecordDatasetReload records a dataset reload under a trigger label.
func (m *Metrics) RecordDatasetReload(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.DatasetReloadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

// RecordRowsSkipped records skipped rows under a reason label.
func (m *Metrics) RecordRowsSkipped(ctx context.Context, reason string, count int64) {
	if m == nil || count == 0 {
		return
	}
	m.RowsSkippedTotal.Add(ctx, count, metric.WithAttributes(attribute.String("reason", reason)))
}
