// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package models defines the meetup data exchanged with the backend and
held in the cache.

Read models:

  - Meetup: summary element of a viewport list
  - MeetupDetail: the single-meetup view
  - Midpoint, ConfirmedPOI: nested values patched in place by push events
  - POI: a candidate place near the midpoint; unknown provider fields
    survive a decode/encode round trip in Extra

Write models are the request and response bodies of join, leave,
confirm-poi, finish and cancel.

Status carries the backend's lifecycle table:

	RECRUITING ──▶ CONFIRMED ──▶ FINISHED
	     │
	     └──────▶ CANCELED

FINISHED and CANCELED are terminal. The table only decides which actions
to offer; the backend remains the authority on every transition.
*/
package models
