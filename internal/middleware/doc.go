// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package middleware provides the chi middleware used by the companion server.

  - RequestID: assigns X-Request-ID and stores it for logging.Ctx
  - PrometheusMetrics: request count and latency labeled by route pattern
  - Compression: chi's compressor for JSON responses, websocket upgrades excluded

All three have the func(http.Handler) http.Handler shape and are installed
with chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/meetups", h.Viewport)

PrometheusMetrics reads the route pattern after the handler runs, so it
must sit inside the chi router rather than wrap it.
*/
package middleware
