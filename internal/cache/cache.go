// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/meetupsync/internal/metrics"
)

// cleanupInterval is how often expired entries are swept.
const cleanupInterval = time.Minute

// Op describes what happened to a key.
type Op string

const (
	OpSet        Op = "set"
	OpInvalidate Op = "invalidate"
	OpDelete     Op = "delete"
	OpClear      Op = "clear"
)

// Change is one key-level notification. OpClear carries a zero Key.
type Change struct {
	Key Key `json:"key"`
	Op  Op  `json:"op"`
}

// Listener receives the changes of one store operation. All changes made by a
// single Update arrive in one call.
type Listener func(changes []Change)

// LoadFunc fetches the authoritative value for a key.
type LoadFunc func(ctx context.Context) (any, error)

// entry is a cached view. Values are treated as immutable: writers replace
// them, never mutate them in place.
type entry struct {
	value     any
	stale     bool
	updatedAt time.Time
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	Loads         int64
	TotalKeys     int64
	LastCleanup   time.Time
}

// Store is the process-wide read cache shared by the router, the reconciler
// and the read paths. It is passed around as a handle; there is no global instance.
//
// Every mutating call is atomic: Update applies a whole set of key writes
// under one lock, so no reader observes half of a multi-key patch.
// Listeners run after the lock is released, in the calling goroutine.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	ttl     time.Duration
	stats   Stats
	now     func() time.Time

	subMu   sync.RWMutex
	subs    map[uint64]Listener
	nextSub uint64

	loads    singleflight.Group
	flightMu sync.Mutex
	flights  map[string]*flight
	life     context.Context
	kill     context.CancelFunc

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a store. A positive ttl expires entries that have not been
// written for that long and starts a background sweeper; Close stops it.
func New(ttl time.Duration) *Store {
	s := &Store{
		entries:  make(map[Key]*entry),
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[uint64]Listener),
		flights:  make(map[string]*flight),
		stopChan: make(chan struct{}),
	}
	s.life, s.kill = context.WithCancel(context.Background())
	s.stats.LastCleanup = s.now()

	if ttl > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
	return s
}

// Get returns the value at k. Stale entries are still returned; use IsStale
// or Fetch to decide whether to reload.
func (s *Store) Get(k Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		s.recordMissLocked()
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, k)
		s.recordMissLocked()
		s.stats.Evictions++
		s.updateSizeLocked()
		return nil, false
	}
	s.recordHitLocked()
	return e.value, true
}

// Set stores v at k and clears any stale mark.
func (s *Store) Set(k Key, v any) {
	s.Update(func(tx *Tx) { tx.Set(k, v) })
}

// Update runs fn with exclusive access to the store. Writes made through tx
// become visible together when fn returns, followed by one notification.
func (s *Store) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	tx := &Tx{s: s}
	fn(tx)
	s.updateSizeLocked()
	s.mu.Unlock()

	s.notify(tx.changes)
}

// Keys returns the live keys of the given kind in a stable order.
func (s *Store) Keys(kind KeyKind) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keysLocked(kind)
}

// Invalidate marks k for refetch. The cached value stays readable until a
// Fetch replaces it. It reports whether k was present.
func (s *Store) Invalidate(k Key) bool {
	s.mu.Lock()
	e, ok := s.entries[k]
	if ok {
		e.stale = true
		s.stats.Invalidations++
		metrics.CacheInvalidations.Inc()
	}
	s.mu.Unlock()

	if ok {
		s.notify([]Change{{Key: k, Op: OpInvalidate}})
	}
	return ok
}

// IsStale reports whether k is present and marked for refetch.
func (s *Store) IsStale(k Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[k]
	return ok && e.stale
}

// Fetch returns the cached value at k, calling load when the entry is
// absent, stale or expired. Concurrent fetches of the same key share one
// load. Each caller stops waiting when its own ctx ends; the load itself is
// canceled only once every waiter has left or the store is closed, and a
// canceled load leaves the cache untouched.
func (s *Store) Fetch(ctx context.Context, k Key, load LoadFunc) (any, error) {
	if v, ok := s.fresh(k); ok {
		return v, nil
	}

	name := k.String()
	f := s.joinFlight(ctx, name)
	defer s.leaveFlight(name, f)

	ch := s.loads.DoChan(name, func() (any, error) {
		v, err := load(f.ctx)
		if err == nil {
			err = f.ctx.Err()
		}
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.stats.Loads++
		s.mu.Unlock()
		s.Set(k, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// flight is the context a shared load runs under. It keeps the values of
// the caller that started it but none of its cancellation.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func() bool
	waiters int
}

func (s *Store) joinFlight(ctx context.Context, name string) *flight {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	f, ok := s.flights[name]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel, stop: context.AfterFunc(s.life, cancel)}
		s.flights[name] = f
	}
	f.waiters++
	return f
}

func (s *Store) leaveFlight(name string, f *flight) {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.stop()
	f.cancel()
	delete(s.flights, name)
	// A later Fetch must start a new load, not join this canceled one.
	s.loads.Forget(name)
}

// Delete removes k.
func (s *Store) Delete(k Key) {
	s.mu.Lock()
	_, ok := s.entries[k]
	if ok {
		delete(s.entries, k)
		s.stats.Evictions++
		s.updateSizeLocked()
	}
	s.mu.Unlock()

	if ok {
		s.notify([]Change{{Key: k, Op: OpDelete}})
	}
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.stats.Evictions += int64(len(s.entries))
	s.entries = make(map[Key]*entry)
	s.updateSizeLocked()
	s.mu.Unlock()

	s.notify([]Change{{Op: OpClear}})
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn must not block.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// GetStats returns a snapshot of the store's counters.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// HitRate returns the cache hit rate as a percentage
func (s *Store) HitRate() float64 {
	stats := s.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Close stops the background sweeper and cancels loads still in flight.
// It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.kill()
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Store) fresh(k Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok || e.stale || e.expired(s.now()) {
		s.recordMissLocked()
		return nil, false
	}
	s.recordHitLocked()
	return e.value, true
}

func (s *Store) keysLocked(kind KeyKind) []Key {
	now := s.now()
	keys := make([]Key, 0, len(s.entries))
	for k, e := range s.entries {
		if k.Kind == kind && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].BBox < keys[j].BBox
	})
	return keys
}

func (s *Store) recordHitLocked() {
	s.stats.Hits++
	metrics.CacheHits.Inc()
}

func (s *Store) recordMissLocked() {
	s.stats.Misses++
	metrics.CacheMisses.Inc()
}

func (s *Store) updateSizeLocked() {
	s.stats.TotalKeys = int64(len(s.entries))
	metrics.CacheSize.Set(float64(s.stats.TotalKeys))
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}

	s.subMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range listeners {
		fn(changes)
	}
}

// cleanupLoop periodically removes expired entries
func (s *Store) cleanupLoop() {
	defer s.wg.Done()

	interval := cleanupInterval
	if s.ttl < interval {
		interval = s.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes all expired entries
func (s *Store) cleanup() {
	now := s.now()

	s.mu.Lock()
	var removed []Change
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			removed = append(removed, Change{Key: k, Op: OpDelete})
		}
	}
	s.stats.Evictions += int64(len(removed))
	s.stats.LastCleanup = now
	s.updateSizeLocked()
	s.mu.Unlock()

	s.notify(removed)
}

// Tx is the write view passed to Update. It is only valid inside the
// Update callback.
type Tx struct {
	s       *Store
	changes []Change
}

// Get returns the live value at k.
func (tx *Tx) Get(k Key) (any, bool) {
	e, ok := tx.s.entries[k]
	if !ok || e.expired(tx.s.now()) {
		return nil, false
	}
	return e.value, true
}

// Set writes v at k and clears its stale mark.
func (tx *Tx) Set(k Key, v any) {
	now := tx.s.now()
	e := &entry{value: v, updatedAt: now}
	if tx.s.ttl > 0 {
		e.expiresAt = now.Add(tx.s.ttl)
	}
	tx.s.entries[k] = e
	tx.changes = append(tx.changes, Change{Key: k, Op: OpSet})
}

// Replace writes v at k keeping the entry's stale mark. Patches use it so an
// optimistic write does not cancel a pending refetch.
func (tx *Tx) Replace(k Key, v any) bool {
	e, ok := tx.s.entries[k]
	if !ok || e.expired(tx.s.now()) {
		return false
	}
	now := tx.s.now()
	ne := &entry{value: v, stale: e.stale, updatedAt: now, expiresAt: e.expiresAt}
	if tx.s.ttl > 0 {
		ne.expiresAt = now.Add(tx.s.ttl)
	}
	tx.s.entries[k] = ne
	tx.changes = append(tx.changes, Change{Key: k, Op: OpSet})
	return true
}

// Keys returns the live keys of kind.
func (tx *Tx) Keys(kind KeyKind) []Key {
	return tx.s.keysLocked(kind)
}
