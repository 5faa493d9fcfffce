// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package websocket

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
)

const (
	outboxSize    = 256
	attachTimeout = 5 * time.Second
)

// Message types sent to map clients.
const (
	MessageTypeCacheChanged = "cache_changed"
	MessageTypeFocusChanged = "focus_changed"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the envelope of every frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// CacheChangedData lists the cache keys written by one store operation. A
// map UI re-reads the named views from the companion API.
type CacheChangedData struct {
	Timestamp string         `json:"timestamp"`
	Changes   []cache.Change `json:"changes"`
}

// FocusChangedData announces the meetup whose stream is being followed.
// MeetupID is 0 when the focus was cleared.
type FocusChangedData struct {
	Timestamp string `json:"timestamp"`
	MeetupID  int64  `json:"meetup_id"`
}

// Hub fans encoded frames out to attached clients. Membership is owned by
// the Run goroutine; the mutex only guards reads from other goroutines.
type Hub struct {
	mu      sync.RWMutex
	members []*Client

	attach chan *Client
	detach chan *Client
	outbox chan []byte
}

// NewHub creates an idle hub. Nothing is delivered until Run is called.
func NewHub() *Hub {
	return &Hub{
		attach: make(chan *Client),
		detach: make(chan *Client),
		outbox: make(chan []byte, outboxSize),
	}
}

// Run owns the client set until ctx ends, then disconnects every client
// and returns ctx.Err(). A stopped hub may be run again.
func (h *Hub) Run(ctx context.Context) error {
	defer h.disconnectAll(ctx)

	for {
		// Pending membership changes go first, so a client attached before
		// a publish always receives it.
		select {
		case c := <-h.attach:
			h.add(c)
			continue
		case c := <-h.detach:
			h.remove(c, "")
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-h.attach:
			h.add(c)
		case c := <-h.detach:
			h.remove(c, "")
		case frame := <-h.outbox:
			h.fanOut(frame)
		}
	}
}

// Attach hands c to the running hub. It reports false when no hub picked
// the client up within the attach timeout.
func (h *Hub) Attach(c *Client) bool {
	timer := time.NewTimer(attachTimeout)
	defer timer.Stop()
	select {
	case h.attach <- c:
		return true
	case <-timer.C:
		return false
	}
}

// Detach removes c. It returns immediately if the hub already dropped it.
func (h *Hub) Detach(c *Client) {
	select {
	case h.detach <- c:
	case <-c.gone:
	}
}

// Clients returns the number of attached clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.members = append(h.members, c)
	n := len(h.members)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("clients", n).Msg("websocket client attached")
}

// remove drops c and closes its queue. A non-empty reason is counted as an
// error.
func (h *Hub) remove(c *Client, reason string) {
	h.mu.Lock()
	i := slices.Index(h.members, c)
	if i >= 0 {
		h.members = slices.Delete(h.members, i, i+1)
	}
	n := len(h.members)
	h.mu.Unlock()

	if i < 0 {
		return
	}
	c.release()
	metrics.WSConnections.Set(float64(n))
	if reason != "" {
		metrics.WSErrors.WithLabelValues(reason).Inc()
	}
	logging.Debug().Uint64("client_id", c.id).Int("clients", n).Str("reason", reason).Msg("websocket client detached")
}

// fanOut queues frame on every client in attach order. A client with a full
// queue is dropped; it reconnects and re-reads its views.
func (h *Hub) fanOut(frame []byte) {
	h.mu.RLock()
	var slow []*Client
	for _, c := range h.members {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c, "slow_client")
	}
}

func (h *Hub) disconnectAll(ctx context.Context) {
	h.mu.Lock()
	members := h.members
	h.members = nil
	h.mu.Unlock()

	for _, c := range members {
		c.release()
	}
	metrics.WSConnections.Set(0)

	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", len(members)).
		Msg("websocket hub stopped")
}

// Publish encodes one message and queues it for every client. It never
// blocks: when the outbox is full the message is dropped and counted.
func (h *Hub) Publish(messageType string, data interface{}) {
	frame, err := Encode(Message{Type: messageType, Data: data})
	if err != nil {
		metrics.WSErrors.WithLabelValues("marshal").Inc()
		logging.Error().Err(err).Str("message_type", messageType).Msg("websocket message not encodable")
		return
	}
	select {
	case h.outbox <- frame:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("websocket outbox full, message dropped")
	}
}

// BroadcastChanges has the cache.Listener signature, so it can be handed
// to Store.Subscribe directly.
func (h *Hub) BroadcastChanges(changes []cache.Change) {
	if len(changes) == 0 {
		return
	}
	h.Publish(MessageTypeCacheChanged, CacheChangedData{
		Timestamp: now(),
		Changes:   changes,
	})
}

// BroadcastFocusChanged tells clients which meetup is being followed.
func (h *Hub) BroadcastFocusChanged(meetupID int64) {
	h.Publish(MessageTypeFocusChanged, FocusChangedData{
		Timestamp: now(),
		MeetupID:  meetupID,
	})
}

// Encode renders msg as a text frame.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
