// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"
)

// Streamer is satisfied by *session.Session.
type Streamer interface {
	Serve(ctx context.Context) error
}

// SessionService follows the global stream and owns the focus stream's
// lifetime. Focus changes happen outside the tree, through the session.
type SessionService struct {
	session Streamer
	name    string
}

// NewSessionService creates the service.
func NewSessionService(s Streamer) *SessionService {
	return &SessionService{session: s, name: "session-streams"}
}

// Serve implements suture.Service.
func (s *SessionService) Serve(ctx context.Context) error {
	return s.session.Serve(ctx)
}

// String implements fmt.Stringer for suture's logs.
func (s *SessionService) String() string {
	return s.name
}
