// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

var (
	lastClientID atomic.Uint64
	pongFrame    = []byte(`{"type":"pong"}`)
)

// Client is one map UI connection. The hub writes frames to send; the
// client answers its own pings through replies so it never touches a
// queue the hub may close.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn

	send    chan []byte
	replies chan []byte
	gone    chan struct{}
	once    sync.Once
}

// NewClient wraps conn for hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return newClient(hub, conn, sendQueueSize)
}

func newClient(hub *Hub, conn *websocket.Conn, queue int) *Client {
	return &Client{
		id:      lastClientID.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, queue),
		replies: make(chan []byte, 1),
		gone:    make(chan struct{}),
	}
}

// ID returns the client's process-unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// release closes the send queue. Only the hub calls it.
func (c *Client) release() {
	c.once.Do(func() {
		close(c.gone)
		close(c.send)
	})
}

// Start runs the read and write loops.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump answers pings until the connection drops, then detaches.
// Anything other than a ping is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.WSErrors.WithLabelValues("bad_message").Inc()
			continue
		}
		if msg.Type == MessageTypePing {
			select {
			case c.replies <- pongFrame:
			default:
			}
		}
	}
}

// writePump drains both queues onto the connection and keeps it alive with
// protocol pings. It exits when the hub releases the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		var frame []byte
		select {
		case f, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			frame = f
		case frame = <-c.replies:
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			metrics.WSErrors.WithLabelValues("write").Inc()
			return
		}
		metrics.WSMessagesSent.Inc()
	}
}
