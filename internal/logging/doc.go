// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package logging provides the zerolog-based structured logger shared by
// every meetupsync package.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: cfg.EffectiveLogLevel(), Format: "console"})
//
//	logging.Info().Str("target", "meetup:7").Msg("following stream")
//	logging.Ctx(ctx).Warn().Err(err).Msg("mutation failed")
//
// # Context
//
// Request IDs travel on context.Context and are sent to the backend as
// X-Request-ID. ContextWithMeetupID tags a context with the meetup an
// operation concerns; Ctx adds both fields to every entry.
//
// # Levels
//
// Stream lifecycle, reconnect scheduling and dropped frames are logged at
// debug level, so they only show up when stream.debug (or LOG_LEVEL=debug)
// is set. Self-canceled requests are never logged at error level.
//
// # slog
//
// NewSlogLogger adapts the global logger to log/slog for the supervisor's
// sutureslog event hook.
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
package logging
