// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type streamerFunc func(ctx context.Context) error

func (f streamerFunc) Serve(ctx context.Context) error { return f(ctx) }

func TestSessionService(t *testing.T) {
	var _ suture.Service = (*SessionService)(nil)

	started := make(chan struct{})
	svc := NewSessionService(streamerFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	if svc.String() != "session-streams" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestSessionService_PropagatesError(t *testing.T) {
	want := errors.New("stream failed")
	svc := NewSessionService(streamerFunc(func(context.Context) error { return want }))

	if err := svc.Serve(context.Background()); !errors.Is(err, want) {
		t.Errorf("Serve() = %v, want %v", err, want)
	}
}
