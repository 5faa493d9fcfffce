// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package events

import (
	"github.com/tomtom215/meetupsync/internal/models"
)

// Kind identifies a stream event. It is taken from the SSE event name.
type Kind string

const (
	KindMidpointUpdated     Kind = "midpoint_updated"
	KindPOIUpdated          Kind = "poi_updated"
	KindPOIConfirmed        Kind = "poi_confirmed"
	KindMeetupStatusChanged Kind = "meetup_status_changed"
)

// AllKinds lists every kind the per-meetup stream emits.
var AllKinds = []Kind{
	KindMidpointUpdated,
	KindPOIUpdated,
	KindPOIConfirmed,
	KindMeetupStatusChanged,
}

// GlobalKinds is the subset emitted by the optional all-meetups stream.
var GlobalKinds = []Kind{
	KindMeetupStatusChanged,
	KindMidpointUpdated,
}

// Envelope is a decoded, validated stream event.
// Payload holds one of the *Payload types below, matching Kind.
// TS is advisory and never used for ordering or dedup.
type Envelope struct {
	Kind     Kind
	TargetID int64
	Payload  any
	TS       string
}

// MidpointUpdatedPayload carries a recomputed midpoint. Midpoint is nil when
// the last attendee left.
type MidpointUpdatedPayload struct {
	MeetupID int64            `json:"meetup_id" validate:"gt=0"`
	Midpoint *models.Midpoint `json:"midpoint"`
	TS       string           `json:"ts"`
}

// POIUpdatedPayload carries a fresh candidate list around the midpoint.
// The producer omits "type" on this payload.
type POIUpdatedPayload struct {
	MeetupID int64            `json:"meetup_id" validate:"gt=0"`
	Midpoint *models.Midpoint `json:"midpoint"`
	POIs     []models.POI     `json:"pois"`
	TS       string           `json:"ts"`
}

// ConfirmedPlace is the poi object inside a poi_confirmed payload.
type ConfirmedPlace struct {
	Name    string  `json:"name" validate:"required"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address"`
}

// POIConfirmedPayload announces the host's final place choice.
type POIConfirmedPayload struct {
	MeetupID int64          `json:"meetup_id" validate:"gt=0"`
	POI      ConfirmedPlace `json:"poi"`
	TS       string         `json:"ts"`
}

// ConfirmedPOI converts the payload into the cached shape, stamping the
// event timestamp as the confirmation time.
func (p *POIConfirmedPayload) ConfirmedPOI() *models.ConfirmedPOI {
	return &models.ConfirmedPOI{
		Name:        p.POI.Name,
		Lat:         p.POI.Lat,
		Lng:         p.POI.Lng,
		Address:     p.POI.Address,
		ConfirmedAt: p.TS,
	}
}

// StatusChangedPayload carries a meetup status transition.
type StatusChangedPayload struct {
	MeetupID int64         `json:"meetup_id" validate:"gt=0"`
	Status   models.Status `json:"status" validate:"required,meetup_status"`
	TS       string        `json:"ts"`
}
