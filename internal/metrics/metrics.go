// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the fusion pipeline:
// - Upstream feed fetch latency and failures
// - Circuit breaker state per feed
// - Position report acceptance and discard counts
// - Entity registry population and reconcile latency
// - Trail buffer size
// - WebSocket fan-out and API traffic
// - Event bus publish/consume counters

var (
	// Feed Metrics
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Duration of upstream feed fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of upstream feed fetch failures",
		},
		[]string{"feed", "error_type"}, // "http", "decode", "breaker_open", "rate_limited"
	)

	FeedRecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_records_fetched_total",
			Help: "Total number of raw records fetched per feed",
		},
		[]string{"feed"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Fusion Pipeline Metrics
	ReportsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_reports_accepted_total",
			Help: "Total number of position reports accepted into the pipeline",
		},
		[]string{"source"},
	)

	ReportsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_reports_discarded_total",
			Help: "Total number of position reports discarded before fusion",
		},
		[]string{"source", "reason"}, // "invalid_coords", "no_fix", "stale"
	)

	EntitiesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fusion_entities_active",
			Help: "Current number of tracked entities by class",
		},
		[]string{"class"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fusion_reconcile_duration_seconds",
			Help:    "Duration of registry reconciliation in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_refresh_cycles_total",
			Help: "Total number of refresh cycles by outcome",
		},
		[]string{"outcome"}, // "applied", "superseded", "failed"
	)

	// Trail Metrics
	TrailPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trail_points",
			Help: "Current total number of buffered trail points",
		},
	)

	TrailsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trails_tracked",
			Help: "Current number of entity trails in the buffer",
		},
	)

	TrailPointsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trail_points_evicted_total",
			Help: "Total number of trail points evicted by retention pruning",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of WebSocket clients dropped for slow consumption",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Event Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of position updates published to the event bus",
		},
		[]string{"subject"},
	)

	BusMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_consumed_total",
			Help: "Total number of position updates consumed from the event bus",
		},
	)

	BusMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_parse_failed_total",
			Help: "Total number of bus messages that failed to parse",
		},
	)
)

// RecordFeedFetch records one upstream fetch with its outcome.
func RecordFeedFetch(feed string, duration time.Duration, records int, err error) {
	FeedFetchDuration.WithLabelValues(feed).Observe(duration.Seconds())
	if err != nil {
		FeedFetchErrors.WithLabelValues(feed, classifyFetchError(err)).Inc()
		return
	}
	FeedRecordsFetched.WithLabelValues(feed).Add(float64(records))
}

// classifyFetchError buckets fetch errors into coarse label values so the
// error_type label stays low-cardinality.
func classifyFetchError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "circuit breaker is open"),
		strings.Contains(msg, "too many requests"):
		return "breaker_open"
	case strings.Contains(msg, "rate limit"):
		return "rate_limited"
	case strings.Contains(msg, "decode"),
		strings.Contains(msg, "unmarshal"),
		strings.Contains(msg, "invalid character"):
		return "decode"
	default:
		return "http"
	}
}

// RecordAPIRequest records one HTTP API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordReconcile records one registry reconciliation and updates the
// per-class population gauges.
func RecordReconcile(duration time.Duration, entitiesByClass map[string]int) {
	ReconcileDuration.Observe(duration.Seconds())
	for class, count := range entitiesByClass {
		EntitiesActive.WithLabelValues(class).Set(float64(count))
	}
}

// UpdateTrailGauges refreshes the trail buffer gauges after append or prune.
func UpdateTrailGauges(trails, points int) {
	TrailsTracked.Set(float64(trails))
	TrailPoints.Set(float64(points))
}

// RecordBreakerTransition mirrors a gobreaker state change into the gauges.
// State encoding matches the gauge help text: closed=0, half-open=1, open=2.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
