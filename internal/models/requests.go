// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package models

// JoinRequest is the body of POST /meetups/{id}/join.
type JoinRequest struct {
	UserID int64   `json:"user_id" validate:"gt=0"`
	Lat    float64 `json:"lat" validate:"latitude"`
	Lng    float64 `json:"lng" validate:"longitude"`
}

// LeaveRequest is the body of DELETE /meetups/{id}/leave.
type LeaveRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// ConfirmPOIRequest is the body of POST /meetups/{id}/confirm-poi.
type ConfirmPOIRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=200"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address" validate:"max=300"`
}

// AttendanceResponse is returned by join and leave.
type AttendanceResponse struct {
	Message      string `json:"message"`
	CurrentCount int    `json:"current_count"`
}

// StatusResponse is returned by finish and cancel.
type StatusResponse struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
}

// ConfirmPOIResponse is returned by confirm-poi.
// POI and ConfirmedAt may be null if the backend omits them.
type ConfirmPOIResponse struct {
	Message     string        `json:"message"`
	Status      Status        `json:"status"`
	POI         *ConfirmedPOI `json:"poi"`
	ConfirmedAt *string       `json:"confirmed_at"`
}
