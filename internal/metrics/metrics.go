// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric this process exports.
const namespace = "meetupsync"

func counterOpts(subsystem, name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
}

func gaugeOpts(subsystem, name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
}

func histogramOpts(subsystem, name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}
}

// Push streams. The stream label is "focus" or "global".
var (
	StreamState = promauto.NewGaugeVec(
		gaugeOpts("stream", "state", "Connection state: 0=idle 1=connecting 2=open 3=erroring 4=reconnecting 5=closed"),
		[]string{"stream"},
	)
	StreamDials = promauto.NewCounterVec(
		counterOpts("stream", "dials_total", "Connection attempts"),
		[]string{"stream"},
	)
	StreamErrors = promauto.NewCounterVec(
		counterOpts("stream", "errors_total", "Transport errors, each one followed by a scheduled reconnect"),
		[]string{"stream"},
	)
	StreamReconnectDelay = promauto.NewHistogramVec(
		histogramOpts("stream", "reconnect_delay_seconds", "Reconnect delays as scheduled", []float64{1, 2, 4, 8, 16, 30, 60}),
		[]string{"stream"},
	)
	StreamFrames = promauto.NewCounterVec(
		counterOpts("stream", "frames_total", "Frames received on a live connection"),
		[]string{"stream", "event"},
	)
	// callback: open, frame, error, retry
	StreamStaleCallbacks = promauto.NewCounterVec(
		counterOpts("stream", "stale_callbacks_total", "Callbacks ignored because a newer connection superseded them"),
		[]string{"stream", "callback"},
	)
)

// Event decoding and cache patching.
var (
	EventsApplied = promauto.NewCounterVec(
		counterOpts("events", "applied_total", "Decoded events routed to the cache"),
		[]string{"kind"},
	)
	// reason: malformed, unknown
	EventsDropped = promauto.NewCounterVec(
		counterOpts("events", "dropped_total", "Frames dropped before any patch"),
		[]string{"reason"},
	)
	// view: detail, list, sidelist
	CachePatches = promauto.NewCounterVec(
		counterOpts("cache", "patches_total", "Cache entries rewritten by patches"),
		[]string{"view"},
	)
)

// Shared cache.
var (
	CacheHits          = promauto.NewCounter(counterOpts("cache", "hits_total", "Reads served from a fresh entry"))
	CacheMisses        = promauto.NewCounter(counterOpts("cache", "misses_total", "Reads that found no fresh entry"))
	CacheSize          = promauto.NewGauge(gaugeOpts("cache", "entries", "Entries currently held"))
	CacheInvalidations = promauto.NewCounter(counterOpts("cache", "invalidations_total", "Entries marked for refetch"))
	// result: success, error, aborted
	CacheLoads = promauto.NewCounterVec(
		counterOpts("cache", "loads_total", "Backend loads triggered by a cache read"),
		[]string{"view", "result"},
	)
)

// Backend REST calls and writes.
var (
	BackendRequestsTotal = promauto.NewCounterVec(
		counterOpts("backend", "requests_total", "Backend API calls by operation and status code"),
		[]string{"operation", "status_code"},
	)
	BackendRequestDuration = promauto.NewHistogramVec(
		histogramOpts("backend", "request_duration_seconds", "Backend API call latency",
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}),
		[]string{"operation"},
	)
	BackendRateLimitWaits = promauto.NewCounter(
		counterOpts("backend", "rate_limit_waits_total", "Calls delayed by the outgoing rate limiter"),
	)
	// result: success, conflict, error, aborted
	MutationsTotal = promauto.NewCounterVec(
		counterOpts("backend", "mutations_total", "Write actions by outcome"),
		[]string{"action", "result"},
	)
)

// Circuit breaker in front of the backend.
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		gaugeOpts("breaker", "state", "0=closed 1=half-open 2=open"),
		[]string{"name"},
	)
	// result: success, failure, rejected
	CircuitBreakerRequests = promauto.NewCounterVec(
		counterOpts("breaker", "requests_total", "Calls seen by the breaker"),
		[]string{"name", "result"},
	)
	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		gaugeOpts("breaker", "consecutive_failures", "Failures since the last success"),
		[]string{"name"},
	)
	CircuitBreakerTransitions = promauto.NewCounterVec(
		counterOpts("breaker", "transitions_total", "State changes"),
		[]string{"name", "from_state", "to_state"},
	)
)

// Companion server and websocket push.
var (
	APIRequestsTotal = promauto.NewCounterVec(
		counterOpts("http", "requests_total", "Companion API requests by route pattern"),
		[]string{"method", "endpoint", "status_code"},
	)
	APIRequestDuration = promauto.NewHistogramVec(
		histogramOpts("http", "request_duration_seconds", "Companion API latency",
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}),
		[]string{"method", "endpoint"},
	)

	WSConnections  = promauto.NewGauge(gaugeOpts("push", "clients", "Attached websocket clients"))
	WSMessagesSent = promauto.NewCounter(counterOpts("push", "frames_sent_total", "Frames written to websocket clients"))
	WSErrors       = promauto.NewCounterVec(
		counterOpts("push", "errors_total", "Websocket failures by kind"),
		[]string{"error_type"},
	)

	AppInfo = promauto.NewGaugeVec(
		gaugeOpts("", "build_info", "Always 1, labeled with the build version"),
		[]string{"version", "go_version"},
	)
)

// RecordBackendRequest records one backend API call. statusCode is 0 when no
// response was received.
func RecordBackendRequest(operation string, statusCode int, duration time.Duration) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	BackendRequestsTotal.WithLabelValues(operation, code).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records one companion API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMutation records the outcome of a write action.
func RecordMutation(action, result string) {
	MutationsTotal.WithLabelValues(action, result).Inc()
}

// RecordEventDropped records a frame that produced no patch.
func RecordEventDropped(reason string) {
	EventsDropped.WithLabelValues(reason).Inc()
}

// RecordCacheLoad records a cache load outcome for a view kind.
func RecordCacheLoad(view, result string) {
	CacheLoads.WithLabelValues(view, result).Inc()
}

// SetAppInfo publishes the build version.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
