// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package session composes the live-state layer behind one focused meetup.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/client"
	"github.com/tomtom215/meetupsync/internal/coherence"
	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/events"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/mutation"
	"github.com/tomtom215/meetupsync/internal/stream"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

// Backend is the request/response surface a session reads and writes
// through. *client.Client implements it.
type Backend interface {
	mutation.API
	ListByBBox(ctx context.Context, b viewport.BBox) ([]models.Meetup, error)
	GetDetail(ctx context.Context, id int64) (*models.MeetupDetail, error)
}

// Option customizes a Session.
type Option func(*options)

type options struct {
	backend   Backend
	dialer    stream.Dialer
	scheduler stream.Scheduler
	store     *cache.Store
}

// WithBackend replaces the HTTP client built from config.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDialer replaces the HTTP SSE dialer.
func WithDialer(d stream.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithScheduler replaces the retry timer scheduler.
func WithScheduler(s stream.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithStore uses an existing cache instead of creating one. The session
// does not close a store it did not create.
func WithStore(s *cache.Store) Option {
	return func(o *options) { o.store = s }
}

// Session wires the live-state layer together: one cache, the backend
// client, the focus stream, the optional global stream, the event router
// and the mutation reconciler.
type Session struct {
	store      *cache.Store
	ownsStore  bool
	backend    Backend
	router     *coherence.Router
	globalRtr  *coherence.Router
	reconciler *mutation.Reconciler
	focus      *stream.Manager
	global     *stream.Manager
	logger     zerolog.Logger

	mu             sync.Mutex
	viewportSeq    uint64
	viewportCancel context.CancelFunc
	closed         bool
}

// Status is a point-in-time view of the session for diagnostics.
type Status struct {
	FocusTarget   string          `json:"focus_target"`
	FocusState    string          `json:"focus_state"`
	FocusAttempt  int             `json:"focus_attempt"`
	GlobalEnabled bool            `json:"global_enabled"`
	GlobalState   string          `json:"global_state,omitempty"`
	Breaker       string          `json:"breaker,omitempty"`
	Router        coherence.Stats `json:"router"`
	GlobalRouter  coherence.Stats `json:"global_router"`
	Cache         cache.Stats     `json:"cache"`
}

// New builds a session from cfg. Nothing connects until Focus or Serve.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session: nil config")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{logger: logging.WithComponent("session")}

	if o.store != nil {
		s.store = o.store
	} else {
		s.store = cache.New(cfg.Cache.TTL)
		s.ownsStore = true
	}

	if o.backend != nil {
		s.backend = o.backend
	} else {
		s.backend = client.New(&cfg.API)
	}
	if o.dialer == nil {
		o.dialer = stream.NewHTTPDialer(nil, nil)
	}

	s.reconciler = mutation.NewReconciler(s.backend, s.store, cfg.Identity)
	s.router = coherence.NewRouter(s.store, events.NewDecoder(events.AllKinds...), cfg.Stream.Debug)

	endpoint := stream.MeetupEndpoint(cfg.StreamBaseURL(), cfg.Stream.GlobalURL)
	backoff := stream.Backoff{Floor: cfg.Stream.BackoffFloor, Ceiling: cfg.Stream.BackoffCeiling}

	s.focus = stream.NewManager(o.dialer, stream.Options{
		Name:      "focus",
		Endpoint:  endpoint,
		Backoff:   backoff,
		Scheduler: o.scheduler,
		OnFrame:   frameSink(s.router),
		Debug:     cfg.Stream.Debug,
	})

	if cfg.GlobalStreamEnabled() {
		s.globalRtr = coherence.NewRouter(s.store, events.NewDecoder(events.GlobalKinds...), cfg.Stream.Debug)
		s.global = stream.NewManager(o.dialer, stream.Options{
			Name:      "global",
			Endpoint:  endpoint,
			Backoff:   backoff,
			Scheduler: o.scheduler,
			OnFrame:   frameSink(s.globalRtr),
			Debug:     cfg.Stream.Debug,
		})
	}

	return s, nil
}

func frameSink(r *coherence.Router) stream.FrameFunc {
	return func(_ stream.Target, f events.Frame) {
		r.HandleFrame(f)
	}
}

// Store returns the session's cache.
func (s *Session) Store() *cache.Store {
	return s.store
}

// Focus follows meetup id's stream, replacing any previous focus. A
// non-positive id clears the focus.
func (s *Session) Focus(id int64) {
	if id <= 0 {
		s.ClearFocus()
		return
	}
	s.focus.Activate(stream.MeetupTarget(id))
}

// ClearFocus tears down the focus stream.
func (s *Session) ClearFocus() {
	s.focus.Deactivate()
}

// FocusedMeetup returns the focused meetup id, or 0.
func (s *Session) FocusedMeetup() int64 {
	return s.focus.Target().MeetupID
}

// GlobalEnabled reports whether the all-meetups stream is configured.
func (s *Session) GlobalEnabled() bool {
	return s.global != nil
}

// LoadViewport returns the meetups inside b, from cache when fresh. A newer
// LoadViewport call cancels one still in flight; the superseded call
// returns client.ErrAborted, which callers drop silently.
func (s *Session) LoadViewport(ctx context.Context, b viewport.BBox) ([]models.Meetup, error) {
	box := viewport.Normalize(b)
	if err := box.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.viewportCancel != nil {
		s.viewportCancel()
	}
	s.viewportSeq++
	seq := s.viewportSeq
	s.viewportCancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.viewportSeq == seq {
			s.viewportCancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	load := func(ctx context.Context) (any, error) {
		list, err := s.backend.ListByBBox(ctx, box)
		recordLoad(cache.KindList, err)
		if err != nil {
			return nil, err
		}
		return list, nil
	}

	v, err := s.store.Fetch(ctx, cache.ListKey(box), load)
	if err != nil {
		if ctx.Err() != nil && !client.IsAborted(err) {
			err = fmt.Errorf("list meetups in %s: %w", box, client.ErrAborted)
		}
		if client.IsAborted(err) {
			s.logger.Debug().Str("bbox", box.Key()).Msg("viewport query superseded")
		}
		return nil, err
	}
	return v.([]models.Meetup), nil
}

// Detail returns meetup id's detail view, refetching when absent or marked
// stale.
func (s *Session) Detail(ctx context.Context, id int64) (*models.MeetupDetail, error) {
	v, err := s.store.Fetch(ctx, cache.DetailKey(id), func(ctx context.Context) (any, error) {
		d, err := s.backend.GetDetail(ctx, id)
		recordLoad(cache.KindDetail, err)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		if ctx.Err() != nil && !client.IsAborted(err) {
			err = fmt.Errorf("get meetup %d: %w", id, client.ErrAborted)
		}
		return nil, err
	}
	return v.(*models.MeetupDetail), nil
}

// POIs returns the cached candidate list for meetup id. It is filled by
// poi_updated events only.
func (s *Session) POIs(id int64) ([]models.POI, bool) {
	v, ok := s.store.Get(cache.SideListKey(id))
	if !ok {
		return nil, false
	}
	pois, ok := v.([]models.POI)
	return pois, ok
}

// Join adds the configured identity to meetup id.
func (s *Session) Join(ctx context.Context, id int64) (*models.AttendanceResponse, error) {
	return s.reconciler.Join(ctx, id)
}

// Leave removes the configured identity from meetup id.
func (s *Session) Leave(ctx context.Context, id int64) (*models.AttendanceResponse, error) {
	return s.reconciler.Leave(ctx, id)
}

// ConfirmPOI settles meetup id on a place.
func (s *Session) ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error) {
	return s.reconciler.ConfirmPOI(ctx, id, req)
}

// Finish moves meetup id to FINISHED.
func (s *Session) Finish(ctx context.Context, id int64) (*models.StatusResponse, error) {
	return s.reconciler.Finish(ctx, id)
}

// Cancel moves meetup id to CANCELED.
func (s *Session) Cancel(ctx context.Context, id int64) (*models.StatusResponse, error) {
	return s.reconciler.Cancel(ctx, id)
}

// Serve follows the global stream, when configured, until ctx ends. The
// focus stream is driven by Focus and is torn down when Serve returns.
func (s *Session) Serve(ctx context.Context) error {
	defer s.focus.Deactivate()

	if s.global == nil {
		s.logger.Debug().Msg("global stream disabled")
		<-ctx.Done()
		return ctx.Err()
	}
	return s.global.Follow(ctx, stream.GlobalTarget())
}

// Close tears down both streams, cancels any viewport query and releases
// the cache. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.viewportCancel != nil {
		s.viewportCancel()
		s.viewportCancel = nil
	}
	s.mu.Unlock()

	s.focus.Deactivate()
	if s.global != nil {
		s.global.Deactivate()
	}
	if s.ownsStore {
		s.store.Close()
	}
}

// Status returns a diagnostics snapshot.
func (s *Session) Status() Status {
	st := Status{
		FocusTarget:   s.focus.Target().String(),
		FocusState:    s.focus.State().String(),
		FocusAttempt:  s.focus.Attempt(),
		GlobalEnabled: s.global != nil,
		Router:        s.router.Stats(),
		Cache:         s.store.GetStats(),
	}
	if s.global != nil {
		st.GlobalState = s.global.State().String()
		st.GlobalRouter = s.globalRtr.Stats()
	}
	if c, ok := s.backend.(*client.Client); ok {
		st.Breaker = c.BreakerState()
	}
	return st
}

func recordLoad(kind cache.KeyKind, err error) {
	result := "success"
	switch {
	case client.IsAborted(err):
		result = "aborted"
	case err != nil:
		result = "error"
	}
	metrics.RecordCacheLoad(kind.String(), result)
}
