package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal     metric.Int64Counter
	HTTPRequestDuration   metric.Float64Histogram
	PurchasesTotal        metric.Int64Counter
	PurchaseFailuresTotal metric.Int64Counter
	RouteIngestPoints     metric.Int64Counter
	RouteIngestDuration   metric.Float64Histogram
	DBQueryErrorsTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("audiotour")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.PurchasesTotal, err = meter.Int64Counter(
			"purchases_total",
			metric.WithDescription("Total number of recorded tour purchases"),
			metric.WithUnit("{purchase}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create purchases_total: %v", err)
		}

		m.PurchaseFailuresTotal, err = meter.Int64Counter(
			"purchase_failures_total",
			metric.WithDescription("Total number of rejected purchase attempts"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create purchase_failures_total: %v", err)
		}

		m.RouteIngestPoints, err = meter.Int64Counter(
			"route_ingest_points_total",
			metric.WithDescription("Points of interest created from uploaded route files"),
			metric.WithUnit("{point}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_ingest_points_total: %v", err)
		}

		m.RouteIngestDuration, err = meter.Float64Histogram(
			"route_ingest_duration_seconds",
			metric.WithDescription("Duration of route file ingestion in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_ingest_duration_seconds: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance. InitAppMetrics must have run.
func Get() *AppMetrics {
	return appMetrics
}

// RecordDBError counts a failed database query, tagged by operation name.
// Safe to call before InitAppMetrics (tests, tooling).
func RecordDBError(ctx context.Context, operation string) {
	if appMetrics == nil {
		return
	}
	appMetrics.DBQueryErrorsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("operation", operation)))
}
