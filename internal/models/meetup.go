// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package models

// Status is the lifecycle status of a meetup as reported by the backend.
type Status string

const (
	StatusRecruiting Status = "RECRUITING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusFinished   Status = "FINISHED"
	StatusCanceled   Status = "CANCELED"
)

// allowedTransitions mirrors the server-side status state machine.
// FINISHED and CANCELED are terminal.
var allowedTransitions = map[Status][]Status{
	StatusRecruiting: {StatusConfirmed, StatusCanceled},
	StatusConfirmed:  {StatusFinished},
	StatusFinished:   nil,
	StatusCanceled:   nil,
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether the backend would accept moving from s to target.
// The server stays authoritative; this is only used to offer actions.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func (s Status) NextStatuses() []Status {
	next := allowedTransitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.Valid() && len(allowedTransitions[s]) == 0
}

// Midpoint is the computed center of all attendees' positions.
type Midpoint struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// ConfirmedPOI is the place the host settled on.
// ConfirmedAt is an ISO-8601 timestamp string and may be empty on list summaries.
type ConfirmedPOI struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address"`
	ConfirmedAt string  `json:"confirmed_at,omitempty"`
}

// Meetup is the summary returned by viewport list queries.
type Meetup struct {
	ID           int64         `json:"id"`
	Status       Status        `json:"status"`
	Title        string        `json:"title"`
	Description  *string       `json:"description"`
	Capacity     int           `json:"capacity"`
	CurrentCount int           `json:"current_count"`
	Lat          float64       `json:"lat"`
	Lng          float64       `json:"lng"`
	Midpoint     *Midpoint     `json:"midpoint"`
	ConfirmedPOI *ConfirmedPOI `json:"confirmed_poi"`
	DistanceKm   *float64      `json:"distance_km"`
}

// MeetupDetail is the full single-meetup view from GET /meetups/{id}.
type MeetupDetail struct {
	ID           int64         `json:"id"`
	Status       Status        `json:"status"`
	Title        string        `json:"title"`
	Description  *string       `json:"description"`
	Capacity     int           `json:"capacity"`
	CurrentCount int           `json:"current_count"`
	Lat          float64       `json:"lat"`
	Lng          float64       `json:"lng"`
	Midpoint     *Midpoint     `json:"midpoint"`
	ConfirmedPOI *ConfirmedPOI `json:"confirmed_poi"`
	DistanceKm   *float64      `json:"distance_km"`
	IsHost       *bool         `json:"is_host,omitempty"`
}

// Full reports whether the meetup has reached capacity.
func (d *MeetupDetail) Full() bool {
	return d.Capacity > 0 && d.CurrentCount >= d.Capacity
}

// POI is one candidate point of interest near a meetup's midpoint.
// Extra carries provider fields this client does not model.
type POI struct {
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Address     string         `json:"address,omitempty"`
	RoadAddress string         `json:"road_address,omitempty"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	DistanceM   int            `json:"distance_m,omitempty"`
	PlaceURL    string         `json:"place_url,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	Extra       map[string]any `json:"-"`
}
