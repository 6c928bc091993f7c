package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Recipe Metrics
var (
	RecipesRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRecipesRegistered,
			Help: HelpTextRecipesRegistered,
		},
	)

	RecipesUnregistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRecipesUnregistered,
			Help: HelpTextRecipesUnregistered,
		},
	)

	RecipesReloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRecipesReloaded,
			Help: HelpTextRecipesReloaded,
		},
	)

	CraftsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCraftsRecorded,
			Help: HelpTextCraftsRecorded,
		},
		[]string{LabelResult},
	)

	CraftsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCraftsRejected,
			Help: HelpTextCraftsRejected,
		},
	)

	CraftLimitsReached = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCraftLimitsReached,
			Help: HelpTextCraftLimitsReached,
		},
	)

	WorldsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameWorldsCleaned,
			Help: HelpTextWorldsCleaned,
		},
	)
)

// Persistence Metrics
var (
	PersistenceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceOperations,
			Help: HelpTextPersistenceOperations,
		},
		[]string{LabelOperation, LabelStatus},
	)

	PersistenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNamePersistenceDuration,
			Help:    HelpTextPersistenceDuration,
			Buckets: StorageLatencyBuckets,
		},
		[]string{LabelOperation},
	)

	PersistenceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceRetries,
			Help: HelpTextPersistenceRetries,
		},
		[]string{LabelOperation},
	)
)

// ObservePersistence records the outcome and latency of one storage operation
func ObservePersistence(op string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	PersistenceOperations.WithLabelValues(op, status).Inc()
	PersistenceDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
