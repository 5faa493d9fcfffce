// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package websocket pushes cache change notifications to map clients.

A map UI connects to /ws and receives one cache_changed message per store
write, naming the keys that changed. The UI then re-reads those views from
the HTTP API instead of receiving full payloads over the socket.

	┌──────────────┐ Subscribe ┌─────┐        ┌─────────┐
	│ cache.Store  │──────────▶│ Hub │──────▶ │ Client  │ × N
	└──────────────┘           └─────┘        └─────────┘

Message types:

  - cache_changed: {timestamp, changes: [{key, op}]}
  - focus_changed: {timestamp, meetup_id}, 0 when cleared
  - ping / pong: client keepalive

Usage:

	hub := websocket.NewHub()
	unsubscribe := store.Subscribe(hub.BroadcastChanges)
	defer unsubscribe()
	go hub.Run(ctx)

Broadcasts never block the caller. A client whose send buffer is full is
disconnected and must reconnect and re-read its views.
*/
package websocket
