package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ItineraryBuildsTotal      metric.Int64Counter
	ItineraryBuildSeconds     metric.Float64Histogram
	ItineraryActivitiesPacked metric.Int64Histogram
	DbQueryDurationSeconds    metric.Float64Histogram
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripTailor")
		var err error
		m := &AppMetrics{}

		m.ItineraryBuildsTotal, err = meter.Int64Counter(
			"itinerary_builds_total",
			metric.WithDescription("Total number of itinerary builds completed"),
			metric.WithUnit("{build}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_builds_total: %v", err)
		}

		m.ItineraryBuildSeconds, err = meter.Float64Histogram(
			"itinerary_build_duration_seconds",
			metric.WithDescription("Duration of itinerary builds in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_build_duration_seconds: %v", err)
		}

		m.ItineraryActivitiesPacked, err = meter.Int64Histogram(
			"itinerary_activities_packed",
			metric.WithDescription("Number of activities selected per build"),
			metric.WithUnit("{activity}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_activities_packed: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized metrics. Panics if InitAppMetrics was not
// called during startup.
func Get() *AppMetrics {
	if appMetrics == nil {
		log.Fatal("Metrics: Get called before InitAppMetrics")
	}
	return appMetrics
}
