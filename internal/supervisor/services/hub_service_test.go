// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/meetupsync/internal/cache"
)

// mockChangeHub is a test double for ChangeHub.
type mockChangeHub struct {
	runErr   error
	runCount atomic.Int32
	running  chan struct{}

	mu      sync.Mutex
	batches [][]cache.Change
}

func newMockChangeHub() *mockChangeHub {
	return &mockChangeHub{running: make(chan struct{}, 8)}
}

func (m *mockChangeHub) Run(ctx context.Context) error {
	m.runCount.Add(1)
	select {
	case m.running <- struct{}{}:
	default:
	}
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockChangeHub) BroadcastChanges(changes []cache.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, changes)
}

func (m *mockChangeHub) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func TestPushHubService_Interface(t *testing.T) {
	var _ suture.Service = (*PushHubService)(nil)
}

func TestPushHubService_SubscribedWhileRunning(t *testing.T) {
	store := cache.New(0)
	defer store.Close()

	hub := newMockChangeHub()
	svc := NewPushHubService(hub, store)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-hub.running:
	case <-time.After(time.Second):
		t.Fatal("hub did not start")
	}

	store.Set(cache.DetailKey(7), "detail")
	if hub.Batches() != 1 {
		t.Fatalf("batches while running = %d, want 1", hub.Batches())
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}

	store.Set(cache.DetailKey(8), "detail")
	if hub.Batches() != 1 {
		t.Errorf("batches after stop = %d, want 1", hub.Batches())
	}
}

func TestPushHubService_NilSource(t *testing.T) {
	hub := newMockChangeHub()
	hub.runErr = errors.New("hub crashed")
	svc := NewPushHubService(hub, nil)

	if err := svc.Serve(context.Background()); !errors.Is(err, hub.runErr) {
		t.Errorf("Serve() = %v, want %v", err, hub.runErr)
	}
	if svc.String() != "push-hub" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestPushHubService_RestartResubscribes(t *testing.T) {
	store := cache.New(0)
	defer store.Close()

	hub := newMockChangeHub()
	hub.runErr = errors.New("hub crashed")
	svc := NewPushHubService(hub, store)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for hub.runCount.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("service was not restarted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	// Every failed run unsubscribed, so no listener is left behind.
	store.Set(cache.DetailKey(7), "detail")
	if hub.Batches() != 0 {
		t.Errorf("stale subscriptions delivered %d batches", hub.Batches())
	}
}
