package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Pipeline
	MetricBuildDuration   = "model.build_duration"
	MetricFetchDuration   = "overpass.fetch_duration"
	MetricGeocodeDuration = "geocode.lookup_duration"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricModelsGenerated = "business.models_generated"
	MetricArchivesServed  = "business.archives_served"
)
