// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package coherence

import (
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/events"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
)

// Router applies decoded events to the shared cache.
type Router struct {
	store   *cache.Store
	decoder *events.Decoder
	debug   bool
	logger  zerolog.Logger

	applied atomic.Int64
	dropped atomic.Int64
}

// Stats holds router counters.
type Stats struct {
	Applied int64 `json:"applied"`
	Dropped int64 `json:"dropped"`
}

// NewRouter creates a router writing to store. A nil decoder accepts every
// per-meetup event kind. With debug set, dropped frames are logged.
func NewRouter(store *cache.Store, decoder *events.Decoder, debug bool) *Router {
	if decoder == nil {
		decoder = events.NewDecoder()
	}
	return &Router{
		store:   store,
		decoder: decoder,
		debug:   debug,
		logger:  logging.WithComponent("coherence"),
	}
}

// Store returns the cache the router writes to.
func (r *Router) Store() *cache.Store {
	return r.store
}

// HandleFrame decodes f and applies it. Frames that fail to decode are
// dropped without touching the cache.
func (r *Router) HandleFrame(f events.Frame) {
	env, err := r.decoder.Decode(f)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, events.ErrUnknownEvent) {
			reason = "unknown"
		}
		r.dropped.Add(1)
		metrics.RecordEventDropped(reason)
		if r.debug {
			r.logger.Debug().Err(err).Str("event", f.Event).Str("reason", reason).Msg("dropped frame")
		}
		return
	}
	r.Apply(env)
}

// Apply runs the patches for env in one store update and returns the number
// of entries written. The whole patch set becomes visible at once.
func (r *Router) Apply(env events.Envelope) int {
	written := 0
	r.store.Update(func(tx *cache.Tx) {
		written = route(tx, env)
	})

	r.applied.Add(1)
	metrics.EventsApplied.WithLabelValues(string(env.Kind)).Inc()
	if r.debug {
		r.logger.Debug().
			Str("kind", string(env.Kind)).
			Int64("meetup_id", env.TargetID).
			Int("entries", written).
			Msg("event applied")
	}
	return written
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	return Stats{Applied: r.applied.Load(), Dropped: r.dropped.Load()}
}

// route is the event routing table.
func route(tx *cache.Tx, env events.Envelope) int {
	switch p := env.Payload.(type) {
	case *events.MidpointUpdatedPayload:
		return PatchMidpoint(tx, env.TargetID, p.Midpoint)

	case *events.POIUpdatedPayload:
		n := ReplacePOIs(tx, env.TargetID, p.POIs)
		// A null midpoint here means none was sent. Only midpoint_updated
		// may clear the detail midpoint.
		if p.Midpoint != nil {
			n += PatchMidpoint(tx, env.TargetID, p.Midpoint)
		}
		return n

	case *events.POIConfirmedPayload:
		return PatchConfirmedPOI(tx, env.TargetID, p.ConfirmedPOI())

	case *events.StatusChangedPayload:
		return PatchStatus(tx, env.TargetID, p.Status)
	}
	return 0
}
