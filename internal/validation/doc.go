// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct metadata
// and reports field names using their json tags. Besides the built-in tags
// (required, latitude, longitude, gt, min, max, url, ...) it registers:
//
//   - meetup_status: one of RECRUITING, CONFIRMED, FINISHED, CANCELED
//
// It is used for configuration, outgoing write bodies, viewport rectangles and
// conformance checks on decoded stream payloads.
//
//	type JoinRequest struct {
//	    UserID int64   `json:"user_id" validate:"gt=0"`
//	    Lat    float64 `json:"lat" validate:"latitude"`
//	    Lng    float64 `json:"lng" validate:"longitude"`
//	}
//
//	if err := validation.Check(&req); err != nil {
//	    return fmt.Errorf("join: %w", err)
//	}
package validation
