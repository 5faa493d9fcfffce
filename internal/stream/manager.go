// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/meetupsync/internal/events"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
)

// FrameFunc receives frames from the current connection, in delivery order.
// It runs with the manager locked and must not call back into the manager.
type FrameFunc func(target Target, f events.Frame)

// EndpointFunc resolves a target to a stream URL.
type EndpointFunc func(Target) string

// Options configures a Manager.
type Options struct {
	// Name labels logs and metrics, e.g. "focus" or "global".
	Name string

	// Endpoint resolves targets to URLs. Defaults to MeetupEndpoint("").
	Endpoint EndpointFunc

	// Backoff is the reconnect policy. Zero values use 1s..30s.
	Backoff Backoff

	// Scheduler runs retry tasks. Defaults to TimerScheduler.
	Scheduler Scheduler

	// OnFrame receives frames from the live connection.
	OnFrame FrameFunc

	// Debug logs lifecycle transitions at debug level.
	Debug bool
}

// MeetupEndpoint returns an EndpointFunc for baseURL: per-meetup targets map
// to {baseURL}/meetups/{id}/midpoint/stream and the global target maps to
// globalURL.
func MeetupEndpoint(baseURL, globalURL string) EndpointFunc {
	base := strings.TrimSuffix(baseURL, "/")
	return func(t Target) string {
		if t.Global {
			return globalURL
		}
		return fmt.Sprintf("%s/meetups/%d/midpoint/stream", base, t.MeetupID)
	}
}

// message is a transport callback or timer firing delivered to the state machine.
type message struct {
	token uint64
	kind  messageKind
	frame events.Frame
	err   error
}

type messageKind uint8

const (
	msgOpen messageKind = iota
	msgFrame
	msgError
	msgRetry
)

func (k messageKind) String() string {
	switch k {
	case msgOpen:
		return "open"
	case msgFrame:
		return "frame"
	case msgError:
		return "error"
	case msgRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Manager owns one logical stream subscription and drives its
// connect/retry/teardown cycle.
//
// Every callback is tagged with the token of the activation that created it.
// Activate issues a new token and Deactivate clears it, so callbacks from a
// superseded connection or retry are dropped when they arrive. All state
// changes happen under mu, which makes message handling sequential.
type Manager struct {
	mu sync.Mutex

	name     string
	dialer   Dialer
	endpoint EndpointFunc
	backoff  Backoff
	sched    Scheduler
	onFrame  FrameFunc
	debug    bool
	logger   zerolog.Logger

	seq     uint64
	token   uint64
	target  Target
	state   State
	attempt int
	retry   Task
	conn    Conn
}

// NewManager creates an idle manager.
func NewManager(dialer Dialer, opts Options) *Manager {
	if opts.Name == "" {
		opts.Name = "stream"
	}
	if opts.Endpoint == nil {
		opts.Endpoint = MeetupEndpoint("", "")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler
	}
	if opts.Backoff.Floor <= 0 {
		opts.Backoff.Floor = DefaultBackoffFloor
	}
	if opts.Backoff.Ceiling <= 0 {
		opts.Backoff.Ceiling = DefaultBackoffCeiling
	}

	m := &Manager{
		name:     opts.Name,
		dialer:   dialer,
		endpoint: opts.Endpoint,
		backoff:  opts.Backoff,
		sched:    opts.Scheduler,
		onFrame:  opts.OnFrame,
		debug:    opts.Debug,
		logger:   logging.WithComponent("stream").With().Str("stream", opts.Name).Logger(),
		state:    StateIdle,
	}
	metrics.StreamState.WithLabelValues(m.name).Set(float64(StateIdle))
	return m
}

// Activate starts a subscription to t, tearing down any current one first,
// and returns the new token. An invalid target only tears down and returns 0.
func (m *Manager) Activate(t Target) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Active() {
		m.teardownLocked("superseded")
	}
	if !t.Valid() {
		return 0
	}

	m.seq++
	m.token = m.seq
	m.target = t
	m.attempt = 0
	m.setStateLocked(StateConnecting)
	m.dialLocked()
	return m.token
}

// Deactivate cancels any pending retry, closes any transport and
// invalidates the token. It is safe to call in any state.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked("deactivated")
}

// Follow subscribes to t until ctx ends, then tears down. Teardown runs on
// every exit path.
func (m *Manager) Follow(ctx context.Context, t Target) error {
	defer m.Deactivate()
	if m.Activate(t) == 0 {
		return fmt.Errorf("invalid stream target %s", t)
	}
	<-ctx.Done()
	return ctx.Err()
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the current token, or 0 when no subscription is active.
func (m *Manager) Token() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Attempt returns the number of consecutive failed connects since the last open.
func (m *Manager) Attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// Target returns the current target. It is the zero Target when inactive.
func (m *Manager) Target() Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == 0 {
		return Target{}
	}
	return m.target
}

// Name returns the manager's label.
func (m *Manager) Name() string {
	return m.name
}

// deliver routes a message into the state machine.
func (m *Manager) deliver(msg message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.token != m.token || m.token == 0 {
		metrics.StreamStaleCallbacks.WithLabelValues(m.name, msg.kind.String()).Inc()
		if m.debug && msg.kind == msgRetry {
			m.logger.Debug().Uint64("token", msg.token).Uint64("current", m.token).Msg("abandoned superseded retry")
		}
		return
	}

	switch msg.kind {
	case msgOpen:
		m.handleOpenLocked()
	case msgFrame:
		m.handleFrameLocked(msg.frame)
	case msgError:
		m.handleErrorLocked(msg.err)
	case msgRetry:
		m.handleRetryLocked()
	}
}

func (m *Manager) handleOpenLocked() {
	if m.state != StateConnecting {
		return
	}
	m.attempt = 0
	m.setStateLocked(StateOpen)
	if m.debug {
		m.logger.Debug().Str("target", m.target.String()).Uint64("token", m.token).Msg("stream open")
	}
}

func (m *Manager) handleFrameLocked(f events.Frame) {
	if m.state != StateOpen {
		return
	}
	metrics.StreamFrames.WithLabelValues(m.name, frameLabel(f.Event)).Inc()
	if m.onFrame != nil {
		m.onFrame(m.target, f)
	}
}

func (m *Manager) handleErrorLocked(err error) {
	if m.state != StateConnecting && m.state != StateOpen {
		return
	}
	m.setStateLocked(StateErroring)
	metrics.StreamErrors.WithLabelValues(m.name).Inc()

	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}

	delay := m.backoff.Delay(m.attempt)
	m.attempt++

	token := m.token
	m.retry = m.sched.AfterFunc(delay, func() {
		m.deliver(message{token: token, kind: msgRetry})
	})
	m.setStateLocked(StateReconnecting)
	metrics.StreamReconnectDelay.WithLabelValues(m.name).Observe(delay.Seconds())

	if m.debug {
		m.logger.Debug().
			Err(err).
			Str("target", m.target.String()).
			Uint64("token", token).
			Int("attempt", m.attempt).
			Dur("delay", delay).
			Msg("stream error, reconnect scheduled")
	}
}

func (m *Manager) handleRetryLocked() {
	if m.state != StateReconnecting {
		return
	}
	m.retry = nil
	m.setStateLocked(StateConnecting)
	if m.debug {
		m.logger.Debug().Str("target", m.target.String()).Uint64("token", m.token).Int("attempt", m.attempt).Msg("stream reconnecting")
	}
	m.dialLocked()
}

func (m *Manager) dialLocked() {
	token := m.token
	url := m.endpoint(m.target)
	metrics.StreamDials.WithLabelValues(m.name).Inc()

	m.conn = m.dialer.Dial(url, Handler{
		OnOpen: func() {
			m.deliver(message{token: token, kind: msgOpen})
		},
		OnFrame: func(f events.Frame) {
			m.deliver(message{token: token, kind: msgFrame, frame: f})
		},
		OnError: func(err error) {
			m.deliver(message{token: token, kind: msgError, err: err})
		},
	})
}

func (m *Manager) teardownLocked(reason string) {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}

	if m.debug && m.token != 0 {
		m.logger.Debug().Str("target", m.target.String()).Uint64("token", m.token).Str("reason", reason).Msg("stream closed")
	}

	m.token = 0
	if m.state != StateClosed {
		m.setStateLocked(StateClosed)
	}
}

func (m *Manager) setStateLocked(next State) {
	if !m.state.CanTransition(next) {
		m.logger.Warn().Str("from", m.state.String()).Str("to", next.String()).Msg("unexpected stream state transition")
	}
	m.state = next
	metrics.StreamState.WithLabelValues(m.name).Set(float64(next))
}

// frameLabel bounds the event label to known kinds.
func frameLabel(event string) string {
	for _, k := range events.AllKinds {
		if string(k) == event {
			return event
		}
	}
	return "other"
}
