// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package mutation issues meetup write calls and reconciles the cache.
//
// Each action runs in three steps: call the backend, patch the response
// fields into every cached view through the coherence patch functions, and
// mark the detail view for refetch. Join and leave patch current_count;
// finish and cancel patch status; confirm-poi patches confirmed_poi and
// status. A failed call changes nothing.
//
// InlineError turns a returned error into the message a UI shows next to
// the action. Self-canceled calls render as the empty string.
package mutation
