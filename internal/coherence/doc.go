// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package coherence keeps every cached view of a meetup consistent.
//
// A meetup can be cached in three places at once: its detail view, any
// number of viewport lists, and its POI side list. Router.Apply takes a
// decoded stream event and writes the affected fields into all of them in a
// single cache.Store.Update:
//
//	midpoint_updated       midpoint on detail and list elements
//	poi_updated            side list replaced; midpoint as above
//	poi_confirmed          confirmed_poi and status CONFIRMED
//	meetup_status_changed  status on detail and list elements
//
// Patches merge single fields into copies of the cached values, so fields
// fetched concurrently by a reader are preserved. Applying the same event
// twice leaves the cache as applying it once did. Views that are not cached
// are skipped.
//
// The exported Patch functions are also used by the mutation package, so a
// write response and the equivalent push event patch identically.
package coherence
