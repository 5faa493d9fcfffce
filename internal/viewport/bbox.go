// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package viewport canonicalizes map viewport rectangles into stable cache keys.
//
// Viewport reporting from a map is continuous and noisy: two pans that differ by
// a few centimetres, or a rectangle reported with its corners swapped, must land
// on the same list cache entry. Normalize rounds every coordinate to 4 decimal
// places (about 11 m) and orders each axis so that min <= max.
package viewport

import (
	"fmt"
	"math"

	"github.com/tomtom215/meetupsync/internal/validation"
)

// Decimals is the number of decimal places kept by Normalize.
const Decimals = 4

const factor = 1e4

// BBox is a geographic rectangle in raw floating-point degrees.
type BBox struct {
	MinLat float64 `json:"min_lat" validate:"latitude"`
	MinLng float64 `json:"min_lng" validate:"longitude"`
	MaxLat float64 `json:"max_lat" validate:"latitude"`
	MaxLng float64 `json:"max_lng" validate:"longitude"`
}

// round4 rounds half away from zero, which is what math.Round does.
func round4(v float64) float64 {
	return math.Round(v*factor) / factor
}

// Normalize returns the canonical form of b.
//
// Every coordinate is rounded first; each axis is then swapped independently if
// min > max after rounding. The result is deterministic and idempotent:
// Normalize(Normalize(b)) == Normalize(b).
func Normalize(b BBox) BBox {
	out := BBox{
		MinLat: round4(b.MinLat),
		MinLng: round4(b.MinLng),
		MaxLat: round4(b.MaxLat),
		MaxLng: round4(b.MaxLng),
	}
	if out.MinLat > out.MaxLat {
		out.MinLat, out.MaxLat = out.MaxLat, out.MinLat
	}
	if out.MinLng > out.MaxLng {
		out.MinLng, out.MaxLng = out.MaxLng, out.MinLng
	}
	return out
}

// IsNormalized reports whether b is already in canonical form.
func (b BBox) IsNormalized() bool {
	return Normalize(b) == b
}

// Key returns a string form of the normalized rectangle suitable for map keys
// and log fields. Rectangles that normalize to the same value share a key.
func (b BBox) Key() string {
	n := Normalize(b)
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", n.MinLat, n.MinLng, n.MaxLat, n.MaxLng)
}

// Contains reports whether the point lies inside the normalized rectangle,
// edges included.
func (b BBox) Contains(lat, lng float64) bool {
	n := Normalize(b)
	return lat >= n.MinLat && lat <= n.MaxLat && lng >= n.MinLng && lng <= n.MaxLng
}

// Validate checks that every coordinate is within WGS84 range.
func (b BBox) Validate() error {
	if err := validation.ValidateStruct(&b); err != nil {
		return fmt.Errorf("invalid bounding box: %w", err)
	}
	return nil
}

// String implements fmt.Stringer.
func (b BBox) String() string {
	return fmt.Sprintf("BBox{lat:[%g,%g] lng:[%g,%g]}", b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}
