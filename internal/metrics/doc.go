// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package metrics provides Prometheus metrics for the live sync layer.

All collectors are registered on the default registry through promauto and
exposed by the companion server at /metrics:

	curl http://127.0.0.1:8765/metrics

# Available Metrics

Every name carries the meetupsync_ prefix, omitted below.

Streams (label stream = "focus" | "global"):
  - stream_state: lifecycle state, 0=idle 1=connecting 2=open 3=erroring 4=reconnecting 5=closed
  - stream_dials_total, stream_errors_total
  - stream_reconnect_delay_seconds: scheduled backoff delays (histogram)
  - stream_frames_total: labels stream, event
  - stream_stale_callbacks_total: callbacks silenced by the token guard

Events and cache:
  - events_applied_total, events_dropped_total
  - cache_patches_total: label view (detail, list, sidelist)
  - cache_hits_total, cache_misses_total, cache_entries, cache_invalidations_total
  - cache_loads_total: labels view, result

Backend:
  - backend_requests_total: labels operation, status_code
  - backend_request_duration_seconds: label operation
  - backend_rate_limit_waits_total
  - backend_mutations_total: labels action, result (success, conflict, error, aborted)
  - breaker_state, breaker_requests_total, breaker_consecutive_failures
  - breaker_transitions_total: labels name, from_state, to_state

Companion server:
  - http_requests_total, http_request_duration_seconds
  - push_clients, push_frames_sent_total, push_errors_total
  - build_info

# Cardinality

Labels carry only bounded values. Stream event labels collapse unrecognized
event names to "other"; backend operations are the fixed set of client calls.
*/
package metrics
