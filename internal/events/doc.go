// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package events decodes the meetup push stream.

The stream is text/event-stream. ParseStream splits it into Frames, skipping
heartbeat comments. A Decoder then maps each frame's event name to a typed
payload and validates it:

	midpoint_updated       -> *MidpointUpdatedPayload
	poi_updated            -> *POIUpdatedPayload
	poi_confirmed          -> *POIConfirmedPayload
	meetup_status_changed  -> *StatusChangedPayload

Frames that fail to parse yield ErrMalformed and frames outside the decoder's
allow-list yield ErrUnknownEvent. Callers drop both; neither ends the stream.
*/
package events
