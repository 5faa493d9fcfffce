// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package config provides layered configuration for a sync session.

Settings are resolved once at start from built-in defaults, an optional YAML
file and mapped environment variables, in that order, then validated with
struct tags and a few cross-field rules.

# Sections

  - api: backend address, timeout, outgoing rate limit, circuit breaker
  - stream: stream address (defaults to api.base_url), optional global stream,
    reconnect backoff bounds, debug toggle
  - cache: optional entry TTL
  - identity: placeholder user sent on join and leave
  - logging: level, format, caller
  - server: local companion server for a map UI
  - supervisor: restart policy for long-running services

# Example File

	api:
	  base_url: "https://meetups.example.com"
	stream:
	  global_url: "https://meetups.example.com/meetups/stream"
	  debug: true
	server:
	  enabled: true
	  allowed_origins: ["http://localhost:5173"]

# Debug Toggle

stream.debug enables stream lifecycle and dropped-frame logging. Those
messages are emitted at debug level, so EffectiveLogLevel lowers the log
level to debug when the toggle is on.
*/
package config
