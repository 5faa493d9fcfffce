// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package stream owns the lifecycle of one push stream connection.

A Manager follows at most one Target at a time: a meetup's stream or the
global status stream. Activate replaces the target and hands out a new
token; every open, frame, error and retry callback carries the token it was
created under and is dropped when it no longer matches. A late frame from a
torn-down connection can therefore never reach the cache.

State machine:

	Idle ──Activate──▶ Connecting ──open──▶ Open
	                       ▲                  │ error
	                       │                  ▼
	                  Reconnecting ◀──── Erroring
	                       │
	     Deactivate from any state ──▶ Closed

Reconnect delays come from Backoff: floor × 2^attempt, capped at the
ceiling (1s, 2s, 4s ... 30s by default). The attempt counter resets when a
connection opens. Retries are scheduled through a Scheduler so tests can
fire them by hand.

HTTPDialer speaks server-sent events over net/http and passes each frame to
the manager's FrameFunc, which in a session is the coherence router.

Usage:

	m := stream.NewManager(stream.NewHTTPDialer(nil, nil), stream.Options{
	    Name:     "focus",
	    Endpoint: stream.MeetupEndpoint(baseURL, ""),
	    OnFrame:  func(_ stream.Target, f events.Frame) { router.HandleFrame(f) },
	})
	m.Activate(stream.MeetupTarget(7))
	defer m.Deactivate()

Follow is the blocking form used under a supervisor: it activates the target
and deactivates when ctx ends.
*/
package stream
