// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package stream

import (
	"fmt"
	"strconv"
)

// State is the lifecycle state of a managed stream connection.
type State uint8

const (
	// StateIdle indicates no subscription has been started yet.
	StateIdle State = iota

	// StateConnecting indicates a transport is being opened.
	StateConnecting

	// StateOpen indicates the transport is delivering frames.
	StateOpen

	// StateErroring indicates the transport failed and is being closed.
	StateErroring

	// StateReconnecting indicates a retry is scheduled.
	StateReconnecting

	// StateClosed indicates the subscription was torn down. A new
	// activation leaves it with a fresh token.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateErroring:
		return "ERRORING"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
	}
}

// transitions lists the legal edges of the connection state machine.
var transitions = map[State][]State{
	StateIdle:         {StateConnecting, StateClosed},
	StateConnecting:   {StateOpen, StateErroring, StateClosed},
	StateOpen:         {StateErroring, StateClosed},
	StateErroring:     {StateReconnecting, StateClosed},
	StateReconnecting: {StateConnecting, StateClosed},
	StateClosed:       {StateConnecting},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Active reports whether the state holds or is waiting to hold a transport.
func (s State) Active() bool {
	return s != StateIdle && s != StateClosed
}

// Target identifies what a manager subscribes to: one meetup, or the
// optional all-meetups stream.
type Target struct {
	MeetupID int64
	Global   bool
}

// MeetupTarget returns the per-meetup target for id.
func MeetupTarget(id int64) Target {
	return Target{MeetupID: id}
}

// GlobalTarget returns the all-meetups target.
func GlobalTarget() Target {
	return Target{Global: true}
}

// Valid reports whether the target can be subscribed to.
func (t Target) Valid() bool {
	return t.Global || t.MeetupID > 0
}

// String returns "global", "meetup:<id>" or "none".
func (t Target) String() string {
	switch {
	case t.Global:
		return "global"
	case t.MeetupID > 0:
		return fmt.Sprintf("meetup:%d", t.MeetupID)
	default:
		return "none"
	}
}
