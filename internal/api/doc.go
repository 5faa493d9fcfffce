// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package api serves the local companion HTTP server for a map UI.

The server exposes the session's cached views, lets the UI move the focus
stream, forwards write actions to the backend, and upgrades /ws clients onto
the change-notification hub.

Routes:

	GET    /healthz                       liveness
	GET    /metrics                       Prometheus scrape
	GET    /ws                            cache change notifications
	GET    /api/v1/status                 session diagnostics
	GET    /api/v1/meetups?min_lat=...    viewport list (cached by normalized box)
	GET    /api/v1/meetups/{id}           detail view
	GET    /api/v1/meetups/{id}/pois      POI candidates pushed by the focus stream
	PUT    /api/v1/focus/{id}             follow meetup id's stream
	DELETE /api/v1/focus                  stop following
	POST   /api/v1/meetups/{id}/join      and leave, confirm-poi, finish, cancel

Responses use the APIResponse envelope. Failed writes carry the inline
message from mutation.InlineError in error.message; a request canceled by
its own client gets no body.

Write routes are rate limited per client IP with go-chi/httprate. CORS is
handled by go-chi/cors against server.allowed_origins, and the websocket
upgrader checks Origin against the same list.
*/
package api
