package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Recipe metric names
const (
	MetricNameRecipesRegistered   = "recipes_registered_total"
	MetricNameRecipesUnregistered = "recipes_unregistered_total"
	MetricNameRecipesReloaded     = "recipes_reloaded_total"
	MetricNameCraftsRecorded      = "crafts_recorded_total"
	MetricNameCraftsRejected      = "crafts_rejected_total"
	MetricNameCraftLimitsReached  = "craft_limits_reached_total"
	MetricNameWorldsCleaned       = "worlds_cleaned_total"
)

// Persistence metric names
const (
	MetricNamePersistenceOperations = "persistence_operations_total"
	MetricNamePersistenceDuration   = "persistence_duration_seconds"
	MetricNamePersistenceRetries    = "persistence_retries_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Recipe metric help text
const (
	HelpTextRecipesRegistered   = "Total number of recipes registered"
	HelpTextRecipesUnregistered = "Total number of recipes unregistered"
	HelpTextRecipesReloaded     = "Total number of registry reloads from storage"
	HelpTextCraftsRecorded      = "Total number of accepted crafts by result material"
	HelpTextCraftsRejected      = "Total number of crafts rejected by a craft limit"
	HelpTextCraftLimitsReached  = "Total number of times a recipe used up its limit in a world"
	HelpTextWorldsCleaned       = "Total number of worlds whose craft counters were dropped"
)

// Persistence metric help text
const (
	HelpTextPersistenceOperations = "Total number of storage operations by outcome"
	HelpTextPersistenceDuration   = "Storage operation latency in seconds, retries included"
	HelpTextPersistenceRetries    = "Total number of storage operation retries"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelResult    = "result"
	LabelOperation = "op"
)

// Persistence status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// StorageLatencyBuckets covers local file writes up to slow database round trips
var StorageLatencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 5}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadUnexpected = "Event payload has unexpected shape"
	LogMsgMetricsRecorded        = "Metrics recorded for event"
)

// unmatchedRoute labels requests no route matched
const unmatchedRoute = "unmatched"
