// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package cache provides the shared, key-addressed read cache behind the live map.

Three kinds of views are cached, addressed by composite keys:

	DetailKey(id)          *models.MeetupDetail
	ListKey(bbox)          []models.Meetup for one normalized viewport
	SideListKey(parentID)  []models.POI candidates for one meetup

# Overview

The Store provides:
  - Thread-safe access with atomic multi-key updates (Update + Tx)
  - Stale marking for reconciliation (Invalidate, IsStale)
  - Get-or-load reads with per-key load sharing (Fetch, x/sync/singleflight)
  - Change notification to subscribers (Subscribe)
  - Optional TTL expiry with a background sweeper

# Usage Example

	store := cache.New(10 * time.Minute)
	defer store.Close()

	detail, err := store.Fetch(ctx, cache.DetailKey(7), func(ctx context.Context) (any, error) {
	    return client.GetDetail(ctx, 7)
	})

	// Patch detail and every list containing the meetup in one step.
	store.Update(func(tx *cache.Tx) {
	    for _, k := range tx.Keys(cache.KindList) {
	        // copy, modify, tx.Replace(k, updated)
	    }
	})

# Value Ownership

Values are never modified in place. Writers copy, change the copy, and store
it with Tx.Set or Tx.Replace, so a reader holding an older value never sees it
change underneath.

# Invalidation

Invalidate marks an entry stale without removing it: the last known value is
still served by Get while the next Fetch reloads it. Tx.Replace keeps the stale
mark, so an optimistic patch applied after invalidation does not cancel the
pending refetch. Tx.Set and a completed load clear it.

# Thread Safety

All methods are safe for concurrent use. Listeners run synchronously after the
store lock is released and may call back into the store.
*/
package cache
