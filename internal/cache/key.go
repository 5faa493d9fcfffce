// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package cache

import (
	"fmt"
	"strconv"

	"github.com/tomtom215/meetupsync/internal/viewport"
)

// KeyKind distinguishes the three cached views.
type KeyKind uint8

const (
	// KindDetail holds a *models.MeetupDetail.
	KindDetail KeyKind = iota + 1
	// KindList holds a []models.Meetup for one normalized viewport.
	KindList
	// KindSideList holds a []models.POI owned by one meetup.
	KindSideList
)

// String returns the key prefix for the kind.
func (k KeyKind) String() string {
	switch k {
	case KindDetail:
		return "detail"
	case KindList:
		return "list"
	case KindSideList:
		return "sidelist"
	default:
		return "unknown"
	}
}

// Key addresses one cached view. It is comparable and used directly as a map key.
// ID is set for detail and side-list keys, BBox for list keys.
type Key struct {
	Kind KeyKind
	ID   int64
	BBox string
}

// DetailKey returns the key of a meetup's detail view.
func DetailKey(id int64) Key {
	return Key{Kind: KindDetail, ID: id}
}

// ListKey returns the key of the list view for b. The box is normalized, so
// boxes that differ only by float noise or min/max order share a key.
func ListKey(b viewport.BBox) Key {
	return Key{Kind: KindList, BBox: b.Key()}
}

// SideListKey returns the key of the POI candidates owned by parentID.
func SideListKey(parentID int64) Key {
	return Key{Kind: KindSideList, ID: parentID}
}

// String renders the key as "detail:7", "list:37.4000,126.9000,37.6123,127.0000" or "sidelist:7".
func (k Key) String() string {
	switch k.Kind {
	case KindList:
		return "list:" + k.BBox
	case KindDetail, KindSideList:
		return k.Kind.String() + ":" + strconv.FormatInt(k.ID, 10)
	default:
		return fmt.Sprintf("unknown:%d:%s", k.ID, k.BBox)
	}
}

// MarshalText lets keys appear as strings in JSON.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
