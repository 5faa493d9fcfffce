// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package events

import (
	"errors"
	"testing"

	"github.com/tomtom215/meetupsync/internal/models"
)

func TestDecode_AllKinds(t *testing.T) {
	d := NewDecoder()

	t.Run("midpoint_updated", func(t *testing.T) {
		env, err := d.Decode(Frame{
			Event: "midpoint_updated",
			Data:  `{"type":"midpoint_updated","meetup_id":7,"midpoint":{"lat":37.5,"lng":127.0},"ts":"2026-01-01T00:00:00Z"}`,
		})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		p := env.Payload.(*MidpointUpdatedPayload)
		if env.TargetID != 7 || p.Midpoint == nil || p.Midpoint.Lat != 37.5 {
			t.Errorf("unexpected envelope: %+v payload %+v", env, p)
		}
		if env.TS != "2026-01-01T00:00:00Z" {
			t.Errorf("TS = %q", env.TS)
		}
	})

	t.Run("midpoint_updated with null midpoint", func(t *testing.T) {
		env, err := d.Decode(Frame{Event: "midpoint_updated", Data: `{"meetup_id":7,"midpoint":null}`})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if env.Payload.(*MidpointUpdatedPayload).Midpoint != nil {
			t.Error("expected nil midpoint")
		}
	})

	t.Run("poi_updated without type field", func(t *testing.T) {
		env, err := d.Decode(Frame{
			Event: "poi_updated",
			Data:  `{"meetup_id":7,"midpoint":{"lat":1,"lng":2},"pois":[{"place_name":"Cafe","lat":1,"lng":2}]}`,
		})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		p := env.Payload.(*POIUpdatedPayload)
		if len(p.POIs) != 1 || p.POIs[0].Name != "Cafe" {
			t.Errorf("POIs = %+v", p.POIs)
		}
	})

	t.Run("poi_confirmed", func(t *testing.T) {
		env, err := d.Decode(Frame{
			Event: "poi_confirmed",
			Data:  `{"meetup_id":7,"poi":{"name":"Park","lat":37.1,"lng":127.1,"address":"Seoul"},"ts":"T1"}`,
		})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		cp := env.Payload.(*POIConfirmedPayload).ConfirmedPOI()
		if cp.Name != "Park" || cp.ConfirmedAt != "T1" || cp.Address != "Seoul" {
			t.Errorf("ConfirmedPOI() = %+v", cp)
		}
	})

	t.Run("meetup_status_changed", func(t *testing.T) {
		env, err := d.Decode(Frame{Event: "meetup_status_changed", Data: `{"meetup_id":7,"status":"CONFIRMED"}`})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if env.Payload.(*StatusChangedPayload).Status != models.StatusConfirmed {
			t.Errorf("payload = %+v", env.Payload)
		}
	})
}

func TestDecode_Malformed(t *testing.T) {
	d := NewDecoder()

	tests := []struct {
		name  string
		frame Frame
	}{
		{"not json", Frame{Event: "midpoint_updated", Data: "{oops"}},
		{"empty data", Frame{Event: "poi_updated", Data: ""}},
		{"missing meetup id", Frame{Event: "midpoint_updated", Data: `{"midpoint":null}`}},
		{"unknown status", Frame{Event: "meetup_status_changed", Data: `{"meetup_id":7,"status":"DONE"}`}},
		{"confirmed poi without name", Frame{Event: "poi_confirmed", Data: `{"meetup_id":7,"poi":{"lat":1,"lng":2}}`}},
		{"latitude out of range", Frame{Event: "midpoint_updated", Data: `{"meetup_id":7,"midpoint":{"lat":91,"lng":0}}`}},
		{"wrong field type", Frame{Event: "meetup_status_changed", Data: `{"meetup_id":"seven","status":"CONFIRMED"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := d.Decode(tt.frame)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode() error = %v, want ErrMalformed", err)
			}
			if env.Payload != nil {
				t.Errorf("malformed frame produced payload %+v", env.Payload)
			}
		})
	}
}

func TestDecode_UnknownAndFilteredKinds(t *testing.T) {
	if _, err := NewDecoder().Decode(Frame{Event: "message", Data: "{}"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Decode(message) error = %v, want ErrUnknownEvent", err)
	}

	global := NewDecoder(GlobalKinds...)
	if global.Accepts(KindPOIUpdated) {
		t.Error("global decoder should not accept poi_updated")
	}
	_, err := global.Decode(Frame{Event: "poi_confirmed", Data: `{"meetup_id":1,"poi":{"name":"x","lat":0,"lng":0}}`})
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("global Decode(poi_confirmed) error = %v, want ErrUnknownEvent", err)
	}
	if _, err := global.Decode(Frame{Event: "meetup_status_changed", Data: `{"meetup_id":1,"status":"CANCELED"}`}); err != nil {
		t.Errorf("global Decode(meetup_status_changed) error = %v", err)
	}
}
