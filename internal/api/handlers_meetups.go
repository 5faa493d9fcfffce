// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package api

import (
	"net/http"

	"github.com/tomtom215/meetupsync/internal/models"
)

// FocusResponse reports the meetup whose stream is followed; 0 for none.
type FocusResponse struct {
	MeetupID int64 `json:"meetup_id"`
}

// POIsResponse wraps the candidate list. Present is false until the first
// poi_updated event for the meetup arrives.
type POIsResponse struct {
	MeetupID int64        `json:"meetup_id"`
	Present  bool         `json:"present"`
	POIs     []models.POI `json:"pois"`
}

// Viewport lists the meetups inside the requested box.
func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	box, err := viewportParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	list, err := h.session.LoadViewport(r.Context(), box)
	if err != nil {
		writeBackendError(rw, r, err)
		return
	}
	if list == nil {
		list = []models.Meetup{}
	}
	rw.Success(list)
}

// Detail returns one meetup's detail view.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := meetupIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	detail, err := h.session.Detail(r.Context(), id)
	if err != nil {
		writeBackendError(rw, r, err)
		return
	}
	rw.Success(detail)
}

// POIs returns the cached candidates for a meetup. It never calls the
// backend.
func (h *Handler) POIs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := meetupIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	pois, ok := h.session.POIs(id)
	if pois == nil {
		pois = []models.POI{}
	}
	rw.SuccessWithMeta(POIsResponse{MeetupID: id, Present: ok, POIs: pois}, &APIMeta{Cached: true})
}

// Focus moves the focus stream to meetup {id}.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := meetupIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if h.session.FocusedMeetup() != id {
		h.session.Focus(id)
		h.broadcastFocus(id)
	}
	rw.Success(FocusResponse{MeetupID: id})
}

// ClearFocus stops following any meetup.
func (h *Handler) ClearFocus(w http.ResponseWriter, r *http.Request) {
	if h.session.FocusedMeetup() != 0 {
		h.session.ClearFocus()
		h.broadcastFocus(0)
	}
	NewResponseWriter(w, r).Success(FocusResponse{})
}

func (h *Handler) broadcastFocus(id int64) {
	if h.wsHub != nil {
		h.wsHub.BroadcastFocusChanged(id)
	}
}
