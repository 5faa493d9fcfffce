// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown, unless listenErr is
// set or exitEarly is true.
type fakeServer struct {
	listenErr   error
	exitEarly   bool
	shutdownErr error

	listens   atomic.Int32
	shutdowns atomic.Int32
	started   chan struct{}
	released  chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		started:  make(chan struct{}, 8),
		released: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	switch {
	case f.listenErr != nil:
		return f.listenErr
	case f.exitEarly:
		return nil
	}
	<-f.released
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.released)
	}
	return f.shutdownErr
}

func (f *fakeServer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe not called")
	}
}

func TestNewHTTPServerService(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"explicit", 3 * time.Second, 3 * time.Second},
		{"zero", 0, defaultHTTPShutdownTimeout},
		{"negative", -time.Second, defaultHTTPShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHTTPServerService(newFakeServer(), "127.0.0.1:8765", tt.timeout)
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "companion-http" {
				t.Errorf("String() = %q", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*fakeServer)
		cancel      bool
		wantErrIs   error
		wantErrText string
		wantDrained bool
	}{
		{
			name:        "cancel drains the server",
			cancel:      true,
			wantErrIs:   context.Canceled,
			wantDrained: true,
		},
		{
			name:        "bind failure",
			setup:       func(f *fakeServer) { f.listenErr = errors.New("bind: address already in use") },
			wantErrText: "address already in use",
		},
		{
			name:        "listener exits without error",
			setup:       func(f *fakeServer) { f.exitEarly = true },
			wantErrText: "listener exited",
		},
		{
			name:        "shutdown failure",
			setup:       func(f *fakeServer) { f.shutdownErr = context.DeadlineExceeded },
			cancel:      true,
			wantErrIs:   context.DeadlineExceeded,
			wantDrained: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFakeServer()
			if tt.setup != nil {
				tt.setup(server)
			}
			svc := NewHTTPServerService(server, "127.0.0.1:8765", time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()
			server.waitStarted(t)
			if tt.cancel {
				cancel()
			}

			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}

			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantErrIs)
			}
			if tt.wantErrText != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErrText)) {
				t.Errorf("Serve() = %v, want it to mention %q", err, tt.wantErrText)
			}
			if drained := server.shutdowns.Load() == 1; drained != tt.wantDrained {
				t.Errorf("Shutdown called = %v, want %v", drained, tt.wantDrained)
			}
		})
	}
}

func TestHTTPServerService_RealServer(t *testing.T) {
	server := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, server.Addr, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
}

func TestHTTPServerService_RestartedBySupervisor(t *testing.T) {
	server := newFakeServer()
	server.exitEarly = true
	svc := NewHTTPServerService(server, "127.0.0.1:8765", time.Second)

	sup := suture.New("api-test", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for server.listens.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("listener started %d times, want a restart", server.listens.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
