// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/client"
	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/events"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/stream"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

func testConfig(globalURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: "http://backend.test", Timeout: time.Second},
		Stream: config.StreamConfig{
			GlobalURL:      globalURL,
			BackoffFloor:   time.Second,
			BackoffCeiling: 30 * time.Second,
		},
		Identity: config.IdentityConfig{UserID: 1, Lat: 37.5, Lng: 127.0},
	}
}

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type dial struct {
	url  string
	h    stream.Handler
	conn *fakeConn
}

type fakeDialer struct {
	mu     sync.Mutex
	dials  []*dial
	dialed chan *dial
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dialed: make(chan *dial, 16)}
}

func (d *fakeDialer) Dial(url string, h stream.Handler) stream.Conn {
	dl := &dial{url: url, h: h, conn: &fakeConn{}}
	d.mu.Lock()
	d.dials = append(d.dials, dl)
	d.mu.Unlock()
	d.dialed <- dl
	return dl.conn
}

func (d *fakeDialer) next(t *testing.T) *dial {
	t.Helper()
	select {
	case dl := <-d.dialed:
		return dl
	case <-time.After(2 * time.Second):
		t.Fatal("no dial")
		return nil
	}
}

type fakeBackend struct {
	mu         sync.Mutex
	lists      map[string][]models.Meetup
	detail     *models.MeetupDetail
	listCalls  int
	detailHit  int
	detailGate chan struct{}
	block      map[string]chan struct{}
	started    chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		lists:   make(map[string][]models.Meetup),
		block:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (f *fakeBackend) ListByBBox(ctx context.Context, b viewport.BBox) ([]models.Meetup, error) {
	key := viewport.Normalize(b).Key()
	f.mu.Lock()
	f.listCalls++
	gate := f.block[key]
	list := f.lists[key]
	f.mu.Unlock()

	f.started <- key
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("list: %w", client.ErrAborted)
		}
	}
	return list, nil
}

func (f *fakeBackend) GetDetail(ctx context.Context, id int64) (*models.MeetupDetail, error) {
	f.mu.Lock()
	f.detailHit++
	gate := f.detailGate
	f.mu.Unlock()

	if gate != nil {
		f.started <- fmt.Sprintf("detail:%d", id)
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("detail: %w", client.ErrAborted)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detail == nil || f.detail.ID != id {
		return nil, &client.APIError{StatusCode: 404, Detail: "Meetup not found"}
	}
	d := *f.detail
	return &d, nil
}

func (f *fakeBackend) Join(context.Context, int64, models.JoinRequest) (*models.AttendanceResponse, error) {
	return &models.AttendanceResponse{Message: "joined", CurrentCount: 3}, nil
}

func (f *fakeBackend) Leave(context.Context, int64, models.LeaveRequest) (*models.AttendanceResponse, error) {
	return &models.AttendanceResponse{Message: "left", CurrentCount: 1}, nil
}

func (f *fakeBackend) ConfirmPOI(context.Context, int64, models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error) {
	return &models.ConfirmPOIResponse{Status: models.StatusConfirmed}, nil
}

func (f *fakeBackend) Finish(context.Context, int64) (*models.StatusResponse, error) {
	return &models.StatusResponse{Status: models.StatusFinished}, nil
}

func (f *fakeBackend) Cancel(context.Context, int64) (*models.StatusResponse, error) {
	return &models.StatusResponse{Status: models.StatusCanceled}, nil
}

func newTestSession(t *testing.T, globalURL string) (*Session, *fakeBackend, *fakeDialer) {
	t.Helper()
	backend := newFakeBackend()
	dialer := newFakeDialer()
	s, err := New(testConfig(globalURL), WithBackend(backend), WithDialer(dialer))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, backend, dialer
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestFocusRoutesFramesIntoCache(t *testing.T) {
	s, _, dialer := newTestSession(t, "")
	s.Store().Set(cache.DetailKey(7), &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting})

	s.Focus(7)
	dl := dialer.next(t)
	if want := "http://backend.test/meetups/7/midpoint/stream"; dl.url != want {
		t.Errorf("dialed %q, want %q", dl.url, want)
	}
	if got := s.FocusedMeetup(); got != 7 {
		t.Errorf("FocusedMeetup() = %d", got)
	}

	dl.h.OnOpen()
	dl.h.OnFrame(events.Frame{Event: "meetup_status_changed", Data: `{"meetup_id":7,"status":"CONFIRMED"}`})
	dl.h.OnFrame(events.Frame{Event: "poi_updated", Data: `{"meetup_id":7,"pois":[{"name":"Cafe","lat":37.5,"lng":127.0}]}`})

	v, _ := s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).Status; got != models.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got)
	}
	if pois, ok := s.POIs(7); !ok || len(pois) != 1 || pois[0].Name != "Cafe" {
		t.Errorf("POIs(7) = %+v, %v", pois, ok)
	}
	if st := s.Status(); st.FocusState != "OPEN" || st.Router.Applied != 2 {
		t.Errorf("Status() = %+v", st)
	}
}

func TestFocusChangeSilencesOldStream(t *testing.T) {
	s, _, dialer := newTestSession(t, "")
	s.Store().Set(cache.DetailKey(7), &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting})

	s.Focus(7)
	old := dialer.next(t)
	old.h.OnOpen()

	s.Focus(8)
	cur := dialer.next(t)
	if !old.conn.isClosed() {
		t.Error("previous transport not closed")
	}

	old.h.OnFrame(events.Frame{Event: "meetup_status_changed", Data: `{"meetup_id":7,"status":"CANCELED"}`})
	v, _ := s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).Status; got != models.StatusRecruiting {
		t.Errorf("stale stream patched the cache: %s", got)
	}

	s.ClearFocus()
	if !cur.conn.isClosed() {
		t.Error("ClearFocus did not close the transport")
	}
	if s.FocusedMeetup() != 0 {
		t.Error("focus not cleared")
	}

	s.Focus(0)
	select {
	case dl := <-dialer.dialed:
		t.Errorf("Focus(0) dialed %q", dl.url)
	default:
	}
}

func TestLoadViewportCaches(t *testing.T) {
	s, backend, _ := newTestSession(t, "")
	box := viewport.BBox{MinLat: 37.61234567, MaxLat: 37.4, MinLng: 127.0, MaxLng: 126.9}
	backend.lists[viewport.Normalize(box).Key()] = []models.Meetup{{ID: 7}, {ID: 8}}

	ctx := context.Background()
	list, err := s.LoadViewport(ctx, box)
	if err != nil {
		t.Fatalf("LoadViewport() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d meetups", len(list))
	}

	noisy := viewport.BBox{MinLat: 37.400001, MaxLat: 37.612349, MinLng: 126.900002, MaxLng: 127.000001}
	if _, err := s.LoadViewport(ctx, noisy); err != nil {
		t.Fatalf("LoadViewport(noisy) error = %v", err)
	}
	if backend.listCalls != 1 {
		t.Errorf("backend called %d times, want 1", backend.listCalls)
	}
}

func TestLoadViewportRejectsInvalidBox(t *testing.T) {
	s, backend, _ := newTestSession(t, "")
	if _, err := s.LoadViewport(context.Background(), viewport.BBox{MinLat: -95, MaxLat: 10, MinLng: 0, MaxLng: 1}); err == nil {
		t.Error("expected validation error")
	}
	if backend.listCalls != 0 {
		t.Error("invalid box reached the backend")
	}
}

func TestLoadViewportSupersedes(t *testing.T) {
	s, backend, _ := newTestSession(t, "")
	first := viewport.BBox{MinLat: 37.4, MinLng: 126.9, MaxLat: 37.6, MaxLng: 127.1}
	second := viewport.BBox{MinLat: 37.5, MinLng: 127.0, MaxLat: 37.7, MaxLng: 127.2}
	backend.block[first.Key()] = make(chan struct{})
	backend.lists[second.Key()] = []models.Meetup{{ID: 9}}

	errc := make(chan error, 1)
	go func() {
		_, err := s.LoadViewport(context.Background(), first)
		errc <- err
	}()
	<-backend.started

	list, err := s.LoadViewport(context.Background(), second)
	if err != nil || len(list) != 1 {
		t.Fatalf("LoadViewport(second) = %v, %v", list, err)
	}

	select {
	case err := <-errc:
		if !client.IsAborted(err) {
			t.Errorf("superseded query error = %v, want ErrAborted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded query never returned")
	}
	if _, ok := s.Store().Get(cache.ListKey(first)); ok {
		t.Error("aborted query populated the cache")
	}
}

func TestDetailRefetchAfterJoin(t *testing.T) {
	s, backend, _ := newTestSession(t, "")
	backend.detail = &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting, CurrentCount: 2, Title: "Lunch"}
	ctx := context.Background()

	if _, err := s.Detail(ctx, 7); err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if _, err := s.Detail(ctx, 7); err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if backend.detailHit != 1 {
		t.Fatalf("detail fetched %d times, want 1", backend.detailHit)
	}

	if _, err := s.Join(ctx, 7); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	v, _ := s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).CurrentCount; got != 3 {
		t.Errorf("optimistic count = %d, want 3", got)
	}

	backend.mu.Lock()
	backend.detail = &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting, CurrentCount: 3, Title: "Lunch at noon"}
	backend.mu.Unlock()

	d, err := s.Detail(ctx, 7)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if d.Title != "Lunch at noon" || d.CurrentCount != 3 {
		t.Errorf("refetched detail = %+v", d)
	}
	if backend.detailHit != 2 {
		t.Errorf("detail fetched %d times, want 2", backend.detailHit)
	}
}

func TestDetailOutlivesOtherCaller(t *testing.T) {
	s, backend, _ := newTestSession(t, "")
	backend.detail = &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting, CurrentCount: 2}
	backend.detailGate = make(chan struct{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.Detail(ctxA, 7)
		errA <- err
	}()
	<-backend.started

	type result struct {
		d   *models.MeetupDetail
		err error
	}
	resB := make(chan result, 1)
	go func() {
		d, err := s.Detail(context.Background(), 7)
		resB <- result{d, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !client.IsAborted(err) {
		t.Errorf("canceled caller error = %v, want ErrAborted", err)
	}
	close(backend.detailGate)

	select {
	case r := <-resB:
		if r.err != nil || r.d == nil || r.d.ID != 7 {
			t.Errorf("live caller = %+v, %v", r.d, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("live caller never returned")
	}
}

func TestDetailNotFound(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	_, err := s.Detail(context.Background(), 99)
	apiErr, ok := client.AsAPIError(err)
	if !ok || !apiErr.NotFound() {
		t.Errorf("error = %v, want 404 APIError", err)
	}
}

func TestMutationPassthroughs(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	s.Store().Set(cache.DetailKey(7), &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting})
	ctx := context.Background()

	if _, err := s.ConfirmPOI(ctx, 7, models.ConfirmPOIRequest{Name: "Cafe", Lat: 37.5, Lng: 127.0}); err != nil {
		t.Fatalf("ConfirmPOI() error = %v", err)
	}
	v, _ := s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).Status; got != models.StatusConfirmed {
		t.Errorf("status after confirm = %s", got)
	}

	if _, err := s.Finish(ctx, 7); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	v, _ = s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).Status; got != models.StatusFinished {
		t.Errorf("status after finish = %s", got)
	}

	if _, err := s.Leave(ctx, 7); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if _, err := s.Cancel(ctx, 7); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
}

func TestServeWithoutGlobalStream(t *testing.T) {
	s, _, dialer := newTestSession(t, "")
	if s.GlobalEnabled() {
		t.Fatal("global stream enabled without a URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	select {
	case dl := <-dialer.dialed:
		t.Errorf("disabled global stream dialed %q", dl.url)
	default:
	}
}

func TestServeFollowsGlobalStream(t *testing.T) {
	s, _, dialer := newTestSession(t, "http://backend.test/meetups/stream")
	s.Store().Set(cache.DetailKey(7), &models.MeetupDetail{ID: 7, Status: models.StatusRecruiting})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	dl := dialer.next(t)
	if dl.url != "http://backend.test/meetups/stream" {
		t.Errorf("dialed %q", dl.url)
	}
	dl.h.OnOpen()
	dl.h.OnFrame(events.Frame{Event: "meetup_status_changed", Data: `{"meetup_id":7,"status":"CANCELED"}`})
	dl.h.OnFrame(events.Frame{Event: "poi_updated", Data: `{"meetup_id":7,"pois":[]}`})

	v, _ := s.Store().Get(cache.DetailKey(7))
	if got := v.(*models.MeetupDetail).Status; got != models.StatusCanceled {
		t.Errorf("status = %s, want CANCELED", got)
	}
	if _, ok := s.POIs(7); ok {
		t.Error("global stream applied poi_updated")
	}

	st := s.Status()
	if !st.GlobalEnabled || st.GlobalRouter.Applied != 1 || st.GlobalRouter.Dropped != 1 {
		t.Errorf("Status() = %+v", st)
	}

	cancel()
	<-done
	if !dl.conn.isClosed() {
		t.Error("global transport not closed after Serve returned")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _, dialer := newTestSession(t, "")
	s.Focus(7)
	dl := dialer.next(t)

	s.Close()
	s.Close()
	if !dl.conn.isClosed() {
		t.Error("Close did not tear down the focus stream")
	}
}
