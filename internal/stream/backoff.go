// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package stream

import (
	"time"
)

// Backoff constants for stream reconnection.
const (
	// DefaultBackoffFloor is the first reconnection delay.
	DefaultBackoffFloor = 1 * time.Second

	// DefaultBackoffCeiling caps the reconnection delay.
	DefaultBackoffCeiling = 30 * time.Second
)

// Backoff computes capped exponential reconnect delays. It holds no attempt
// state; the manager owns the attempt counter so it resets with the token.
type Backoff struct {
	Floor   time.Duration
	Ceiling time.Duration
}

// DefaultBackoff returns the 1s..30s policy.
func DefaultBackoff() Backoff {
	return Backoff{Floor: DefaultBackoffFloor, Ceiling: DefaultBackoffCeiling}
}

// Delay returns min(Floor * 2^attempt, Ceiling). Negative attempts are
// treated as zero. The result never decreases as attempt grows.
func (b Backoff) Delay(attempt int) time.Duration {
	floor, ceiling := b.Floor, b.Ceiling
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	if ceiling < floor {
		ceiling = floor
	}

	d := floor
	for i := 0; i < attempt; i++ {
		if d > ceiling-d {
			return ceiling
		}
		d *= 2
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// Sequence returns the first n delays, for logging and tests.
func (b Backoff) Sequence(n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = b.Delay(i)
	}
	return out
}
