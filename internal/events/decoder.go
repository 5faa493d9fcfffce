// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package events

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meetupsync/internal/validation"
)

var (
	// ErrUnknownEvent is returned for event names outside the decoder's allow-list.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrMalformed is returned when a known event's payload does not parse or
	// does not conform to the expected shape.
	ErrMalformed = errors.New("malformed event payload")
)

// Decoder turns frames into envelopes for an allow-listed set of kinds.
// It is stateless after construction and safe for concurrent use.
type Decoder struct {
	allowed map[Kind]struct{}
}

// NewDecoder returns a decoder accepting kinds. With no arguments it accepts AllKinds.
func NewDecoder(kinds ...Kind) *Decoder {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	allowed := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return &Decoder{allowed: allowed}
}

// Accepts reports whether the decoder handles kind.
func (d *Decoder) Accepts(kind Kind) bool {
	_, ok := d.allowed[kind]
	return ok
}

// Decode parses a frame. The frame's event name selects the payload type;
// any "type" field inside the payload is ignored.
func (d *Decoder) Decode(f Frame) (Envelope, error) {
	kind := Kind(f.Event)
	if !d.Accepts(kind) {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}

	switch kind {
	case KindMidpointUpdated:
		var p MidpointUpdatedPayload
		if err := decodePayload(f.Data, &p); err != nil {
			return Envelope{}, malformed(kind, err)
		}
		return Envelope{Kind: kind, TargetID: p.MeetupID, Payload: &p, TS: p.TS}, nil

	case KindPOIUpdated:
		var p POIUpdatedPayload
		if err := decodePayload(f.Data, &p); err != nil {
			return Envelope{}, malformed(kind, err)
		}
		return Envelope{Kind: kind, TargetID: p.MeetupID, Payload: &p, TS: p.TS}, nil

	case KindPOIConfirmed:
		var p POIConfirmedPayload
		if err := decodePayload(f.Data, &p); err != nil {
			return Envelope{}, malformed(kind, err)
		}
		return Envelope{Kind: kind, TargetID: p.MeetupID, Payload: &p, TS: p.TS}, nil

	case KindMeetupStatusChanged:
		var p StatusChangedPayload
		if err := decodePayload(f.Data, &p); err != nil {
			return Envelope{}, malformed(kind, err)
		}
		return Envelope{Kind: kind, TargetID: p.MeetupID, Payload: &p, TS: p.TS}, nil
	}

	return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
}

func decodePayload(data string, dst any) error {
	if data == "" {
		return errors.New("empty data")
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return err
	}
	return validation.Check(dst)
}

func malformed(kind Kind, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
}
