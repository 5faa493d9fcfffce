// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package models

import (
	"github.com/goccy/go-json"
)

// poiKnownFields are decoded into POI struct fields; everything else lands in Extra.
var poiKnownFields = []string{
	"name", "category", "address", "road_address", "lat", "lng",
	"distance_m", "place_url", "provider",
}

type poiAlias POI

// UnmarshalJSON decodes a candidate and keeps unmodelled provider fields.
// Older producers send the raw provider "place_name" instead of "name".
func (p *POI) UnmarshalJSON(data []byte) error {
	var base poiAlias
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range poiKnownFields {
		delete(raw, k)
	}
	if base.Name == "" {
		if name, ok := raw["place_name"].(string); ok {
			base.Name = name
			delete(raw, "place_name")
		}
	}
	if len(raw) > 0 {
		base.Extra = raw
	}

	*p = POI(base)
	return nil
}

// Clone returns a copy of p that shares no maps or slices with it.
func (p POI) Clone() POI {
	if p.Extra != nil {
		p.Extra = cloneObject(p.Extra)
	}
	return p
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the containers json.Unmarshal produces into any.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneObject(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes known fields and re-attaches Extra.
func (p POI) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(poiAlias(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}

	merged := make(map[string]any, len(p.Extra)+len(poiKnownFields))
	for k, v := range p.Extra {
		merged[k] = v
	}
	var known map[string]any
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}
