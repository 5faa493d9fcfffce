// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/meetupsync/internal/logging"
)

const defaultHTTPShutdownTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService keeps the companion API listening.
//
//	server := &http.Server{Addr: cfg.Server.Addr, Handler: router.SetupChi()}
//	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr, cfg.Server.ShutdownTimeout))
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server. addr is only used in logs. A
// non-positive shutdownTimeout means 10s.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultHTTPShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		name:            "companion-http",
	}
}

// Serve listens until ctx ends, then drains in-flight requests. A listener
// that dies on its own (port in use, for example) is returned as an error
// so suture restarts it with backoff.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(h.name)
	started := time.Now()

	exited := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		exited <- err
	}()
	logger.Info().Str("addr", h.addr).Msg("companion API listening")

	select {
	case err := <-exited:
		if err == nil {
			err = errors.New("listener exited")
		}
		return fmt.Errorf("companion API on %s: %w", h.addr, err)

	case <-ctx.Done():
	}

	// ctx is already done, so draining gets a fresh deadline.
	drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("companion API shutdown: %w", err)
	}
	<-exited

	logger.Info().Dur("uptime", time.Since(started)).Msg("companion API stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string {
	return h.name
}
