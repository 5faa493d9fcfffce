// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package services

import (
	"context"

	"github.com/tomtom215/meetupsync/internal/cache"
)

// ChangeHub is satisfied by *websocket.Hub.
type ChangeHub interface {
	Run(ctx context.Context) error
	BroadcastChanges(changes []cache.Change)
}

// ChangeSource is satisfied by *cache.Store.
type ChangeSource interface {
	Subscribe(fn cache.Listener) (unsubscribe func())
}

// PushHubService runs the websocket hub and keeps it subscribed to cache
// changes for as long as it runs. A restart re-subscribes.
type PushHubService struct {
	hub    ChangeHub
	source ChangeSource
	name   string
}

// NewPushHubService creates the service. source may be nil, in which case
// the hub only relays explicit broadcasts.
func NewPushHubService(hub ChangeHub, source ChangeSource) *PushHubService {
	return &PushHubService{
		hub:    hub,
		source: source,
		name:   "push-hub",
	}
}

// Serve implements suture.Service.
func (p *PushHubService) Serve(ctx context.Context) error {
	if p.source != nil {
		unsubscribe := p.source.Subscribe(p.hub.BroadcastChanges)
		defer unsubscribe()
	}
	return p.hub.Run(ctx)
}

// String implements fmt.Stringer for suture's logs.
func (p *PushHubService) String() string {
	return p.name
}
