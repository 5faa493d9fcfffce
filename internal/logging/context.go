// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type scopeKey struct{}

// scope is the logging state carried on a context. It is copied on every
// change so parent contexts are never affected.
type scope struct {
	logger    *zerolog.Logger
	requestID string
	meetupID  int64
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, edit func(*scope)) context.Context {
	s := scopeOf(ctx)
	edit(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// GenerateRequestID returns a new UUID for the X-Request-ID header.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ContextWithRequestID attaches a request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = id })
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// ContextWithMeetupID tags ctx with the meetup an operation concerns.
func ContextWithMeetupID(ctx context.Context, id int64) context.Context {
	return withScope(ctx, func(s *scope) { s.meetupID = id })
}

// MeetupIDFromContext returns the tagged meetup, or 0.
func MeetupIDFromContext(ctx context.Context) int64 {
	return scopeOf(ctx).meetupID
}

// ContextWithLogger makes logger the base for Ctx on this context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = &logger })
}

// LoggerFromContext returns the logger set by ContextWithLogger, or the
// global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if l := scopeOf(ctx).logger; l != nil {
		return *l
	}
	return Logger()
}

// Ctx returns a logger carrying request_id and meetup_id from ctx.
//
//	logging.Ctx(ctx).Info().Str("action", "join").Msg("mutation applied")
func Ctx(ctx context.Context) *zerolog.Logger {
	s := scopeOf(ctx)
	base := Logger()
	if s.logger != nil {
		base = *s.logger
	}
	if s.requestID == "" && s.meetupID == 0 {
		return &base
	}

	lc := base.With()
	if s.requestID != "" {
		lc = lc.Str("request_id", s.requestID)
	}
	if s.meetupID != 0 {
		lc = lc.Int64("meetup_id", s.meetupID)
	}
	l := lc.Logger()
	return &l
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
