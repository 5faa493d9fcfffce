// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/meetupsync/internal/viewport"
)

// maxBodyBytes bounds write request bodies.
const maxBodyBytes = 16 * 1024

var errInvalidMeetupID = errors.New("meetup id must be a positive integer")

// meetupIDParam reads the {id} path parameter.
func meetupIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidMeetupID
	}
	return id, nil
}

// viewportParams reads min_lat, min_lng, max_lat and max_lng. Range checks
// happen after normalization in the session.
func viewportParams(r *http.Request) (viewport.BBox, error) {
	q := r.URL.Query()
	var b viewport.BBox
	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &b.MinLat},
		{"min_lng", &b.MinLng},
		{"max_lat", &b.MaxLat},
		{"max_lng", &b.MaxLng},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			return viewport.BBox{}, fmt.Errorf("%s is required", f.name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return viewport.BBox{}, fmt.Errorf("%s must be a number", f.name)
		}
		*f.dst = v
	}
	return b, nil
}
