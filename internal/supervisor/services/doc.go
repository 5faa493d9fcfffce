// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package services provides suture.Service wrappers for the watch process.

	SessionService   session.Serve: global stream plus focus stream teardown
	PushHubService   websocket hub run loop, subscribed to cache changes
	HTTPServerService companion HTTP server with graceful shutdown

Each wrapper implements suture.Service and fmt.Stringer. A wrapper returns
ctx.Err() on a requested shutdown and any other error to ask the
supervisor for a restart.

Wrappers depend on small interfaces rather than the concrete packages, so
tests drive them with fakes.
*/
package services
