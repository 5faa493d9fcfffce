// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/session"
	"github.com/tomtom215/meetupsync/internal/viewport"
	ws "github.com/tomtom215/meetupsync/internal/websocket"
)

// Session is the part of *session.Session the handlers use.
type Session interface {
	Focus(id int64)
	ClearFocus()
	FocusedMeetup() int64
	LoadViewport(ctx context.Context, b viewport.BBox) ([]models.Meetup, error)
	Detail(ctx context.Context, id int64) (*models.MeetupDetail, error)
	POIs(id int64) ([]models.POI, bool)
	Join(ctx context.Context, id int64) (*models.AttendanceResponse, error)
	Leave(ctx context.Context, id int64) (*models.AttendanceResponse, error)
	ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error)
	Finish(ctx context.Context, id int64) (*models.StatusResponse, error)
	Cancel(ctx context.Context, id int64) (*models.StatusResponse, error)
	Status() session.Status
}

// Handler serves the companion API.
type Handler struct {
	session        Session
	wsHub          *ws.Hub
	allowedOrigins []string
	startTime      time.Time
}

// NewHandler creates a Handler. hub may be nil, in which case /ws answers
// 503.
func NewHandler(sess Session, hub *ws.Hub, cfg config.ServerConfig) *Handler {
	return &Handler{
		session:        sess,
		wsHub:          hub,
		allowedOrigins: cfg.AllowedOrigins,
		startTime:      time.Now(),
	}
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	FocusState    string  `json:"focus_state"`
	Breaker       string  `json:"breaker,omitempty"`
}

// StatusResponse is the /api/v1/status body.
type StatusResponse struct {
	Session   session.Status `json:"session"`
	WSClients int            `json:"ws_clients"`
}

// Health reports liveness. The process is degraded, not down, while the
// backend breaker is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.session.Status()
	status := "healthy"
	if st.Breaker == "open" {
		status = "degraded"
	}
	NewResponseWriter(w, r).Success(HealthResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		FocusState:    st.FocusState,
		Breaker:       st.Breaker,
	})
}

// Status returns session diagnostics.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Session: h.session.Status()}
	if h.wsHub != nil {
		resp.WSClients = h.wsHub.Clients()
	}
	NewResponseWriter(w, r).Success(resp)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts only browser origins listed in
// server.allowed_origins. A missing Origin header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers it with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	if !h.wsHub.Attach(client) {
		logging.Ctx(r.Context()).Warn().Msg("websocket hub not running, closing connection")
		_ = conn.Close()
		return
	}
	client.Start()
}

// sanitizeLogValue strips control characters and caps length.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
