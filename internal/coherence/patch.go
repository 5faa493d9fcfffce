// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package coherence

import (
	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/metrics"
	"github.com/tomtom215/meetupsync/internal/models"
)

// The patch functions below are shared by push events and mutation results.
// Each one merges a single field group into every cached view holding the
// meetup: detail(id) and the matching element of every list(*) entry.
// Absent keys are skipped. Cached values are never modified in place; a
// patched copy replaces them through tx, keeping any pending refetch mark.
//
// Every function returns the number of entries it wrote. A view already
// holding the patched value is not rewritten, so a duplicate delivery writes
// nothing.

// PatchStatus sets status on the meetup in every view.
func PatchStatus(tx *cache.Tx, id int64, status models.Status) int {
	return patchDetail(tx, id, func(d *models.MeetupDetail) bool {
		if d.Status == status {
			return false
		}
		d.Status = status
		return true
	}) + patchLists(tx, id, func(m *models.Meetup) bool {
		if m.Status == status {
			return false
		}
		m.Status = status
		return true
	})
}

// PatchCurrentCount sets the attendee count on the meetup in every view.
func PatchCurrentCount(tx *cache.Tx, id int64, count int) int {
	return patchDetail(tx, id, func(d *models.MeetupDetail) bool {
		if d.CurrentCount == count {
			return false
		}
		d.CurrentCount = count
		return true
	}) + patchLists(tx, id, func(m *models.Meetup) bool {
		if m.CurrentCount == count {
			return false
		}
		m.CurrentCount = count
		return true
	})
}

// PatchMidpoint sets the midpoint on the meetup in every view. A nil
// midpoint clears it.
func PatchMidpoint(tx *cache.Tx, id int64, mp *models.Midpoint) int {
	return patchDetail(tx, id, func(d *models.MeetupDetail) bool {
		if sameMidpoint(d.Midpoint, mp) {
			return false
		}
		d.Midpoint = cloneMidpoint(mp)
		return true
	}) + patchLists(tx, id, func(m *models.Meetup) bool {
		if sameMidpoint(m.Midpoint, mp) {
			return false
		}
		m.Midpoint = cloneMidpoint(mp)
		return true
	})
}

// PatchConfirmedPOI records the host's place choice and moves the meetup to
// CONFIRMED in every view.
func PatchConfirmedPOI(tx *cache.Tx, id int64, poi *models.ConfirmedPOI) int {
	return patchDetail(tx, id, func(d *models.MeetupDetail) bool {
		if d.Status == models.StatusConfirmed && sameConfirmed(d.ConfirmedPOI, poi) {
			return false
		}
		d.Status = models.StatusConfirmed
		d.ConfirmedPOI = cloneConfirmed(poi)
		return true
	}) + patchLists(tx, id, func(m *models.Meetup) bool {
		if m.Status == models.StatusConfirmed && sameConfirmed(m.ConfirmedPOI, poi) {
			return false
		}
		m.Status = models.StatusConfirmed
		m.ConfirmedPOI = cloneConfirmed(poi)
		return true
	})
}

// ReplacePOIs replaces the meetup's candidate list wholesale. Unlike the
// field patches it writes even when the side list was never loaded.
func ReplacePOIs(tx *cache.Tx, id int64, pois []models.POI) int {
	out := make([]models.POI, len(pois))
	for i, p := range pois {
		out[i] = p.Clone()
	}
	tx.Set(cache.SideListKey(id), out)
	metrics.CachePatches.WithLabelValues(cache.KindSideList.String()).Inc()
	return 1
}

func patchDetail(tx *cache.Tx, id int64, fn func(d *models.MeetupDetail) bool) int {
	key := cache.DetailKey(id)
	v, ok := tx.Get(key)
	if !ok {
		return 0
	}
	cur, ok := v.(*models.MeetupDetail)
	if !ok || cur == nil {
		return 0
	}

	next := *cur
	if !fn(&next) {
		return 0
	}
	tx.Replace(key, &next)
	metrics.CachePatches.WithLabelValues(cache.KindDetail.String()).Inc()
	return 1
}

// patchLists scans every cached list, since one meetup can sit in several
// overlapping viewports at once.
func patchLists(tx *cache.Tx, id int64, fn func(m *models.Meetup) bool) int {
	written := 0
	for _, key := range tx.Keys(cache.KindList) {
		v, ok := tx.Get(key)
		if !ok {
			continue
		}
		list, ok := v.([]models.Meetup)
		if !ok {
			continue
		}

		idx := -1
		for i := range list {
			if list[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		item := list[idx]
		if !fn(&item) {
			continue
		}
		next := make([]models.Meetup, len(list))
		copy(next, list)
		next[idx] = item

		tx.Replace(key, next)
		metrics.CachePatches.WithLabelValues(cache.KindList.String()).Inc()
		written++
	}
	return written
}

func sameMidpoint(a, b *models.Midpoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneMidpoint(mp *models.Midpoint) *models.Midpoint {
	if mp == nil {
		return nil
	}
	c := *mp
	return &c
}

func sameConfirmed(a, b *models.ConfirmedPOI) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneConfirmed(p *models.ConfirmedPOI) *models.ConfirmedPOI {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
