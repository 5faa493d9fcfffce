// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package stream

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/tomtom215/meetupsync/internal/events"
	"github.com/tomtom215/meetupsync/internal/logging"
)

// ErrStreamEnded is reported when the server closes an open stream.
var ErrStreamEnded = errors.New("stream ended by server")

// Handler receives transport callbacks. Callbacks for one connection are
// delivered sequentially from the connection's own goroutine: at most one
// OnOpen, then frames, then at most one OnError. A closed connection
// delivers nothing further.
type Handler struct {
	OnOpen  func()
	OnFrame func(events.Frame)
	OnError func(error)
}

// Conn is an open or opening transport.
type Conn interface {
	// Close releases the transport. It does not wait for the connection's
	// goroutine and must be safe to call while a callback is running.
	Close()
}

// Dialer opens transports. Dial must not block; connection progress is
// reported through h.
type Dialer interface {
	Dial(url string, h Handler) Conn
}

// HTTPDialer opens text/event-stream connections with a plain HTTP GET.
type HTTPDialer struct {
	client *http.Client
	header http.Header
}

// NewHTTPDialer returns a dialer using client. The client must not set a
// total Timeout, since streams stay open indefinitely. A nil client uses a
// default one.
func NewHTTPDialer(client *http.Client, header http.Header) *HTTPDialer {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPDialer{client: client, header: header.Clone()}
}

// Dial starts connecting to url in the background.
func (d *HTTPDialer) Dial(url string, h Handler) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &httpConn{cancel: cancel}
	go c.run(ctx, d, url, h)
	return c
}

type httpConn struct {
	cancel context.CancelFunc
}

func (c *httpConn) Close() {
	c.cancel()
}

func (c *httpConn) run(ctx context.Context, d *HTTPDialer, url string, h Handler) {
	fail := func(err error) {
		if ctx.Err() == nil && h.OnError != nil {
			h.OnError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		fail(fmt.Errorf("build stream request: %w", err))
		return
	}
	for k, v := range d.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", logging.GenerateRequestID())

	resp, err := d.client.Do(req)
	if err != nil {
		fail(fmt.Errorf("connect stream: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("stream returned status %d", resp.StatusCode))
		return
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/event-stream" {
		fail(fmt.Errorf("stream returned content type %q", resp.Header.Get("Content-Type")))
		return
	}

	if ctx.Err() != nil {
		return
	}
	if h.OnOpen != nil {
		h.OnOpen()
	}

	err = events.ParseStream(resp.Body, func(f events.Frame) error {
		if ctx.Err() != nil {
			return events.ErrStopParsing
		}
		if h.OnFrame != nil {
			h.OnFrame(f)
		}
		return nil
	})
	if err != nil {
		fail(fmt.Errorf("read stream: %w", err))
		return
	}
	fail(ErrStreamEnded)
}
