// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package supervisor runs the long-lived parts of the watch command under
suture v4.

The tree has three layers so that each can restart on its own:

	meetupsync
	├── streams-layer
	│   └── SessionService     global stream + focused meetup stream
	├── push-layer
	│   └── PushHubService     websocket hub subscribed to the cache
	└── api-layer
	    └── HTTPServerService  companion HTTP API

A failing HTTP server never drops the backend streams. A session that keeps
failing backs off according to TreeConfig without touching connected map
clients.

Usage:

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfigFromConfig(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddStreamService(services.NewSessionService(sess))
	tree.AddPushService(services.NewPushHubService(hub, store))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, timeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Supervisor events (start, failure, backoff) are logged through the
sutureslog adapter, so the logger passed in should come from
logging.NewSlogLogger to share the zerolog output.

See the services subpackage for the suture.Service wrappers.
*/
package supervisor
